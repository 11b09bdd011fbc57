package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const wrongSpaceMarker = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func buildStyledRunes(targetRunes, inputRunes []rune, cursorIndex int) []styledRune {
	words := findWords(targetRunes)
	currentWord := wordForCursor(words, cursorIndex)

	out := make([]styledRune, 0, len(targetRunes))
	for i, target := range targetRunes {
		displayed := target
		style := pendingStyle
		if i < len(inputRunes) {
			switch {
			case target == ' ' && inputRunes[i] != ' ':
				displayed = wrongSpaceMarker
				style = incorrectStyle
			case inputRunes[i] == target:
				style = correctStyle
			default:
				style = incorrectStyle
			}
		} else if target != ' ' && currentWord != nil && i >= currentWord.start && i < currentWord.end {
			style = currentWordStyle
		}
		if i == cursorIndex && i >= len(inputRunes) {
			style = style.Underline(true)
		}
		out = append(out, newStyledRune(displayed, style, target == ' '))
	}
	return out
}

func newStyledRune(r rune, style lipgloss.Style, isSpace bool) styledRune {
	return styledRune{
		s:       style.Render(string(r)),
		width:   runewidth.RuneWidth(r),
		isSpace: isSpace,
	}
}

// appendUpcoming adds queued words after the current one in a dimmer style.
func appendUpcoming(runes []styledRune, words []string) []styledRune {
	for _, word := range words {
		runes = append(runes, newStyledRune(' ', upcomingStyle, true))
		for _, r := range word {
			runes = append(runes, newStyledRune(r, upcomingStyle, false))
		}
	}
	return runes
}

type wordRange struct {
	start int
	end   int
}

func findWords(targetRunes []rune) []wordRange {
	var words []wordRange
	start := -1
	for i, r := range targetRunes {
		if r == ' ' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(targetRunes)})
	}
	return words
}

func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	if len(words) == 0 {
		return nil
	}
	if cursorIndex < 0 {
		return &words[0]
	}
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return &words[len(words)-1]
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits, or mid-word when a word is wider than width.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpace := -1

	flush := func(upTo, resume int) {
		out.WriteString(renderStyledRunes(line[:upTo]))
		out.WriteRune('\n')
		line = append([]styledRune{}, line[resume:]...)
		lineWidth = 0
		lastSpace = -1
		for i, item := range line {
			lineWidth += item.width
			if item.isSpace {
				lastSpace = i
			}
		}
	}

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if item.isSpace {
				flush(len(line), len(line))
				i++
				continue
			}
			if lastSpace >= 0 {
				flush(lastSpace, lastSpace+1)
			} else {
				flush(len(line), len(line))
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

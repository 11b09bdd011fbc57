package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/verte-zerg/keyrush/internal/engine"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/stats"
)

const (
	contentRatio   = 0.70
	sparklineWidth = 60
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.result != nil {
		return m.place(m.renderResults(), footerStyle.Render("Tab restart  Ctrl+C quit"))
	}
	return m.place(m.renderTyping(), m.renderFooter())
}

func (m *Model) place(content, footer string) string {
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(1, int(float64(m.width)*contentRatio))
}

func (m *Model) renderTyping() string {
	cfg := m.eng.Config()
	header := headerStyle.Render(fmt.Sprintf("%s · %s", cfg.Mode, cfg.Difficulty))

	target := []rune(m.eng.SampleText())
	typed := []rune(m.eng.Typed())
	cursor := -1
	if len(typed) < len(target) {
		cursor = len(typed)
	}
	runes := buildStyledRunes(target, typed, cursor)
	if cfg.Mode.Kind == model.Words {
		runes = appendUpcoming(runes, m.eng.UpcomingWords(upcomingCount))
	}

	width := m.contentWidth()
	text := wrapStyledRunes(runes, width)
	if width > 0 {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}
	lines := []string{header, "", text}
	if m.eng.Phase() == engine.Idle {
		lines = append(lines, "", footerStyle.Render("Start typing to begin"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	segments := []string{
		m.timerLabel(),
		fmt.Sprintf("%d WPM", m.eng.WPM()),
		fmt.Sprintf("%d%% acc", m.eng.Accuracy()),
	}
	if m.eng.Config().Mode.Kind == model.SuddenDeath {
		segments = append(segments, "one mistake ends it")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) timerLabel() string {
	if m.eng.Config().Mode.Countdown() {
		return fmt.Sprintf("%ds left", m.eng.TimeRemaining())
	}
	return fmt.Sprintf("%ds", m.eng.TimeRemaining())
}

func (m *Model) renderResults() string {
	res := m.result
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%s · %s", res.Mode, res.Difficulty)),
		"",
		accentStyle.Render(fmt.Sprintf("%d WPM", res.WPM)),
		fmt.Sprintf("Accuracy     %d%%", res.Accuracy),
		fmt.Sprintf("Consistency  %d%%", res.Consistency),
		fmt.Sprintf("Characters   %d correct / %d incorrect", res.CorrectChars, res.IncorrectChars),
	}
	if len(res.WPMSamples) > 1 {
		width := sparklineWidth
		if cw := m.contentWidth(); cw > 0 {
			width = min(width, cw)
		}
		lines = append(lines, "", "WPM over time", stats.SampleSparkline(res.WPMSamples, width))
	}
	if len(m.keyTable.Rows()) > 0 {
		lines = append(lines, "", "Most missed keys", m.keyTable.View())
	}
	if notice := m.statusLine(); notice != "" {
		lines = append(lines, "", notice)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusLine() string {
	switch {
	case m.recording:
		return footerStyle.Render("Saving result...")
	case m.recordErr != nil:
		return errorStyle.Render(fmt.Sprintf("Could not save everywhere: %v", m.recordErr))
	case m.hasOutcome && m.outcome.NewHighScore:
		return accentStyle.Render(fmt.Sprintf("New high score: %d WPM", m.outcome.HighScore))
	case m.hasOutcome:
		return footerStyle.Render(fmt.Sprintf("High score: %d WPM", m.outcome.HighScore))
	default:
		return ""
	}
}

func buildKeyTable(keyErrors map[string]int, n int) table.Model {
	top := stats.TopKeyErrors(keyErrors, n)
	rows := lo.Map(top, func(k stats.KeyErrorCount, _ int) table.Row {
		return table.Row{stats.KeyLabel(k.Key), fmt.Sprintf("%d", k.Count)}
	})
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Key", Width: 9},
			{Title: "Misses", Width: 7},
		}),
		table.WithRows(rows),
		table.WithHeight(max(1, len(rows)+1)),
		table.WithFocused(false),
	)
	t.SetStyles(keyTableStyles())
	return t
}

func keyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = lipgloss.NewStyle()
	return styles
}

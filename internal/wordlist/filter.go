package wordlist

import (
	"strings"
	"unicode"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return noSpaces
	}
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

// Words mode compares one word at a time, so a word must not contain whitespace.
func noSpaces(word string) bool {
	return word != "" && !strings.ContainsFunc(word, unicode.IsSpace)
}

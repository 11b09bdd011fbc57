package wordlist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilterEnglishASCII(t *testing.T) {
	filter := FilterForLang("en")
	if !filter("hello") {
		t.Fatalf("expected hello to pass english filter")
	}
	for _, word := range []string{"résumé", "naïve", "don’t", "co-op"} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterOtherLangsRejectSpaces(t *testing.T) {
	filter := FilterForLang("de")
	if !filter("Straße") {
		t.Fatalf("expected Straße to pass")
	}
	if filter("zwei Wörter") {
		t.Fatalf("expected words with spaces to be rejected")
	}
}

func TestLoadWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "# comment\nalpha\n\nbeta\nalpha\nGamma\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := LoadWords(path, FilterForLang("en"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(words) != 2 || words[0] != "alpha" || words[1] != "beta" {
		t.Fatalf("unexpected words: %v", words)
	}

	if _, err := LoadWords(path, func(string) bool { return false }); err == nil {
		t.Fatalf("expected error when nothing survives the filter")
	}
}

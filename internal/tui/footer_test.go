package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/keyrush/internal/engine"
	"github.com/verte-zerg/keyrush/internal/model"
)

type stubSource struct {
	text  string
	words []string
}

func (s stubSource) SampleText(model.Difficulty) string {
	return s.text
}

func (s stubSource) WordBatch(_ model.Difficulty, count int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.words[i%len(s.words)])
	}
	return out
}

func newTestModel(t *testing.T, mode model.Mode) *Model {
	t.Helper()
	src := stubSource{text: "hello world", words: []string{"alpha", "beta", "gamma"}}
	eng, err := engine.New(model.SessionConfig{Mode: mode, Difficulty: model.Easy}, src)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return NewModel(eng, nil, nil)
}

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, model.TimedMode(30))
	m.feed("h")
	m.feed("x")
	out := m.renderFooter()
	if !containsAll(out, []string{"30s left", "0 WPM", "50% acc"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterCountsUpInZen(t *testing.T) {
	m := newTestModel(t, model.Mode{Kind: model.Zen})
	out := m.renderFooter()
	if !containsAll(out, []string{"0s", "100% acc"}) || strings.Contains(out, "left") {
		t.Fatalf("unexpected zen footer: %s", out)
	}
}

func TestRenderFooterWarnsInSuddenDeath(t *testing.T) {
	m := newTestModel(t, model.Mode{Kind: model.SuddenDeath})
	if out := m.renderFooter(); !strings.Contains(out, "one mistake ends it") {
		t.Fatalf("expected sudden death hint: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

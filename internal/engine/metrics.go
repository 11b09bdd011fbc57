package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/stats"
)

// Config returns the configuration of the current session.
func (e *Engine) Config() model.SessionConfig {
	return e.cfg
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.st.phase
}

// SampleText returns the text being matched. In Words mode this is the current word.
func (e *Engine) SampleText() string {
	return string(e.st.sampleText)
}

// Typed returns the characters accepted for the current text.
func (e *Engine) Typed() string {
	return string(e.st.typed)
}

// WordIndex returns the position of the current word in the Words queue.
func (e *Engine) WordIndex() int {
	return e.st.wordIndex
}

// UpcomingWords returns up to n queued words after the current one.
func (e *Engine) UpcomingWords(n int) []string {
	if n <= 0 || len(e.st.wordQueue) == 0 {
		return nil
	}
	start := e.st.wordIndex + 1
	end := min(start+n, len(e.st.wordQueue))
	if start >= end {
		return nil
	}
	return slices.Clone(e.st.wordQueue[start:end])
}

// RemainingWords counts queued words not yet reached.
func (e *Engine) RemainingWords() int {
	if len(e.st.wordQueue) == 0 {
		return 0
	}
	return len(e.st.wordQueue) - e.st.wordIndex - 1
}

// Correct returns the correct keystroke count.
func (e *Engine) Correct() int {
	return e.st.correct
}

// Incorrect returns the incorrect keystroke count.
func (e *Engine) Incorrect() int {
	return e.st.incorrect
}

// KeyErrors returns a copy of the per-key error counts, keyed by lowercased expected character.
func (e *Engine) KeyErrors() map[string]int {
	return maps.Clone(e.st.keyErrors)
}

// WPMSamples returns a copy of the per-tick WPM samples.
func (e *Engine) WPMSamples() []int {
	return slices.Clone(e.st.wpmSamples)
}

// TimeRemaining is the countdown for Timed and Words modes and the elapsed seconds otherwise.
func (e *Engine) TimeRemaining() int {
	return e.st.timeRemaining
}

// StartedAt returns when typing began, zero while Idle.
func (e *Engine) StartedAt() time.Time {
	return e.st.startedAt
}

// WPM is the live value, based on whole elapsed ticks. Final results use the clock instead.
func (e *Engine) WPM() int {
	elapsed := e.st.timeRemaining
	if e.cfg.Mode.Countdown() {
		elapsed = e.cfg.Mode.Seconds() - e.st.timeRemaining
	}
	return stats.WPM(e.st.correct, float64(elapsed))
}

// Accuracy is the live accuracy percentage.
func (e *Engine) Accuracy() int {
	return stats.Accuracy(e.st.correct, e.st.incorrect)
}

// Consistency is 100 until the session finishes, then the score computed at finish.
func (e *Engine) Consistency() int {
	return e.st.consistency
}

// Result returns the finalized result once the session has finished.
func (e *Engine) Result() (model.Result, bool) {
	if !e.st.finalized {
		return model.Result{}, false
	}
	return e.st.result, true
}

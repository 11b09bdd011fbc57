package sink

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/keyrush/internal/model"
)

// HistoryStore is the part of the store the history sink writes to.
type HistoryStore interface {
	AppendHistory(ctx context.Context, rec model.HistoryRecord) error
	HighScore(ctx context.Context) (int, error)
	SetHighScore(ctx context.Context, wpm int) error
}

// Outcome describes what the last recorded result changed locally.
type Outcome struct {
	Record       model.HistoryRecord
	NewHighScore bool
	HighScore    int
}

// History appends results to the local history and tracks the high score.
type History struct {
	store HistoryStore
	now   func() time.Time

	mu   sync.Mutex
	last Outcome
}

// NewHistory builds a history sink over st.
func NewHistory(st HistoryStore) *History {
	return &History{store: st, now: time.Now}
}

// Record stores res as a new history record.
func (h *History) Record(ctx context.Context, res model.Result) error {
	createdAt := res.EndedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}
	rec := model.HistoryRecord{
		ID:             uuid.NewString(),
		CreatedAt:      createdAt,
		WPM:            res.WPM,
		Accuracy:       res.Accuracy,
		CorrectChars:   res.CorrectChars,
		IncorrectChars: res.IncorrectChars,
		Consistency:    res.Consistency,
		Mode:           res.Mode.String(),
		Difficulty:     string(res.Difficulty),
	}
	if err := h.store.AppendHistory(ctx, rec); err != nil {
		return labeled("history", err)
	}

	high, err := h.store.HighScore(ctx)
	if err != nil {
		return labeled("high score", err)
	}
	outcome := Outcome{Record: rec, HighScore: high}
	if res.WPM > high {
		if err := h.store.SetHighScore(ctx, res.WPM); err != nil {
			return labeled("high score", err)
		}
		outcome.NewHighScore = true
		outcome.HighScore = res.WPM
	}

	h.mu.Lock()
	h.last = outcome
	h.mu.Unlock()
	return nil
}

// Last returns the outcome of the most recent successful Record.
func (h *History) Last() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

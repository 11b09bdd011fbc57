package sink

import (
	"context"

	"github.com/verte-zerg/keyrush/internal/leaderboard"
	"github.com/verte-zerg/keyrush/internal/model"
)

// Submitter posts a score on behalf of a known identity.
type Submitter interface {
	Submit(ctx context.Context, sub model.ScoreSubmission) (model.Score, error)
}

// Leaderboard submits results to the shared leaderboard.
type Leaderboard struct {
	submitter Submitter
}

// NewLeaderboard builds a leaderboard sink. A nil submitter means no identity is configured.
func NewLeaderboard(s Submitter) *Leaderboard {
	return &Leaderboard{submitter: s}
}

// Record submits res.
func (l *Leaderboard) Record(ctx context.Context, res model.Result) error {
	if l.submitter == nil {
		return labeled("leaderboard", leaderboard.ErrNotAuthenticated)
	}
	_, err := l.submitter.Submit(ctx, model.ScoreSubmission{
		WPM:         res.WPM,
		Accuracy:    res.Accuracy,
		Mode:        res.Mode.String(),
		Difficulty:  string(res.Difficulty),
		Consistency: res.Consistency,
	})
	return labeled("leaderboard", err)
}

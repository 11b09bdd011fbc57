package leaderboard

import (
	"context"

	"github.com/verte-zerg/keyrush/internal/model"
)

// Local submits to an in-process Service as the holder of token.
type Local struct {
	svc   *Service
	token string
}

// Bind returns a submitter acting as the identity behind token.
func (s *Service) Bind(token string) *Local {
	return &Local{svc: s, token: token}
}

// Submit authenticates the bound token and records the score.
func (l *Local) Submit(ctx context.Context, sub model.ScoreSubmission) (model.Score, error) {
	userID, err := l.svc.Authenticate(ctx, l.token)
	if err != nil {
		return model.Score{}, err
	}
	return l.svc.Submit(ctx, userID, sub)
}

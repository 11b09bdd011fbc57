// Package leaderboard implements the shared score board: identities, profiles and scores.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/store"
)

// Limit caps leaderboard and per-user score listings.
const Limit = 50

const (
	maxNameAttempts = 10
	minNameLen      = 3
	maxNameLen      = 20
	maxWPM          = 1000
)

var (
	// ErrNotAuthenticated is returned when a call needs an identity and has none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrValidation wraps rejected input.
	ErrValidation = errors.New("invalid input")
	// ErrNameTaken is returned when a display name belongs to another profile.
	ErrNameTaken = errors.New("username is already taken")
	// ErrProfileNotFound is returned when an identity has no profile.
	ErrProfileNotFound = errors.New("profile not found")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_#]+$`)

// Registration is what a new identity receives.
type Registration struct {
	Token   string        `json:"token"`
	Profile model.Profile `json:"profile"`
}

// Service applies leaderboard rules on top of the store.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService builds a Service over st.
func NewService(st *store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Register creates an identity, its bearer token and a generated profile.
func (s *Service) Register(ctx context.Context) (Registration, error) {
	now := s.now()
	userID := uuid.NewString()
	if err := s.store.CreateUser(ctx, userID, now); err != nil {
		return Registration{}, err
	}
	name, err := s.generateUsername(ctx)
	if err != nil {
		return Registration{}, err
	}
	profile := model.Profile{UserID: userID, Username: name, CreatedAt: now}
	if err := s.store.InsertProfile(ctx, profile); err != nil {
		return Registration{}, err
	}
	token := uuid.NewString()
	if err := s.store.CreateToken(ctx, token, userID, now); err != nil {
		return Registration{}, err
	}
	return Registration{Token: token, Profile: profile}, nil
}

func (s *Service) generateUsername(ctx context.Context) (string, error) {
	name := randomUsername()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		_, err := s.store.ProfileByUsername(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		name = randomUsername()
	}
	return name, nil
}

func randomUsername() string {
	return fmt.Sprintf("Typist#%d", 1000+rand.Intn(9000))
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrNotAuthenticated
	}
	userID, err := s.store.UserForToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotAuthenticated
	}
	return userID, err
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, userID string) (model.Profile, error) {
	if userID == "" {
		return model.Profile{}, ErrNotAuthenticated
	}
	return s.profile(ctx, userID)
}

func (s *Service) profile(ctx context.Context, userID string) (model.Profile, error) {
	p, err := s.store.ProfileByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Profile{}, ErrProfileNotFound
	}
	return p, err
}

// Submit records a score for the caller under their current display name.
func (s *Service) Submit(ctx context.Context, userID string, sub model.ScoreSubmission) (model.Score, error) {
	if userID == "" {
		return model.Score{}, ErrNotAuthenticated
	}
	normalized, err := validateSubmission(sub)
	if err != nil {
		return model.Score{}, err
	}
	p, err := s.profile(ctx, userID)
	if err != nil {
		return model.Score{}, err
	}
	score := model.Score{
		UserID:      userID,
		Username:    p.Username,
		WPM:         normalized.WPM,
		Accuracy:    normalized.Accuracy,
		Mode:        normalized.Mode,
		Difficulty:  normalized.Difficulty,
		Consistency: normalized.Consistency,
		CreatedAt:   s.now(),
	}
	id, err := s.store.InsertScore(ctx, score)
	if err != nil {
		return model.Score{}, err
	}
	score.ID = id
	return score, nil
}

func validateSubmission(sub model.ScoreSubmission) (model.ScoreSubmission, error) {
	mode, err := model.ParseMode(sub.Mode, 0)
	if err != nil {
		return sub, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	difficulty, err := model.ParseDifficulty(sub.Difficulty)
	if err != nil {
		return sub, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if sub.WPM < 0 || sub.WPM > maxWPM {
		return sub, fmt.Errorf("%w: wpm must be between 0 and %d", ErrValidation, maxWPM)
	}
	if sub.Accuracy < 0 || sub.Accuracy > 100 {
		return sub, fmt.Errorf("%w: accuracy must be between 0 and 100", ErrValidation)
	}
	if sub.Consistency < 0 || sub.Consistency > 100 {
		return sub, fmt.Errorf("%w: consistency must be between 0 and 100", ErrValidation)
	}
	sub.Mode = mode.String()
	sub.Difficulty = string(difficulty)
	return sub, nil
}

// Leaderboard returns the fastest scores matching the filter.
func (s *Service) Leaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.Score, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.store.TopScores(ctx, normalized, Limit)
}

func normalizeFilter(filter model.LeaderboardFilter) (model.LeaderboardFilter, error) {
	if filter.Mode != "" {
		mode, err := model.ParseMode(filter.Mode, 0)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.Mode = mode.String()
	}
	if filter.Difficulty != "" {
		difficulty, err := model.ParseDifficulty(filter.Difficulty)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.Difficulty = string(difficulty)
	}
	return filter, nil
}

// UserScores returns the caller's most recent scores. Anonymous callers get none.
func (s *Service) UserScores(ctx context.Context, userID string) ([]model.Score, error) {
	if userID == "" {
		return []model.Score{}, nil
	}
	return s.store.UserScores(ctx, userID, Limit)
}

// UpdateUsername changes the caller's display name, including on past scores.
func (s *Service) UpdateUsername(ctx context.Context, userID, name string) (model.Profile, error) {
	if userID == "" {
		return model.Profile{}, ErrNotAuthenticated
	}
	trimmed, err := ValidateUsername(name)
	if err != nil {
		return model.Profile{}, err
	}
	p, err := s.profile(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	holder, err := s.store.ProfileByUsername(ctx, trimmed)
	switch {
	case err == nil && holder.UserID != userID:
		return model.Profile{}, ErrNameTaken
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return model.Profile{}, err
	}
	if err := s.store.UpdateUsername(ctx, userID, trimmed); err != nil {
		return model.Profile{}, err
	}
	p.Username = trimmed
	return p, nil
}

// ValidateUsername trims name and checks its length and characters.
func ValidateUsername(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minNameLen || len(trimmed) > maxNameLen {
		return "", fmt.Errorf("%w: username must be %d-%d characters", ErrValidation, minNameLen, maxNameLen)
	}
	if !namePattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: username can only contain letters, numbers, underscores, and #", ErrValidation)
	}
	return trimmed, nil
}

package leaderboard

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return NewService(st)
}

func register(t *testing.T, svc *Service) (string, Registration) {
	t.Helper()
	ctx := context.Background()
	reg, err := svc.Register(ctx)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	userID, err := svc.Authenticate(ctx, reg.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return userID, reg
}

func TestRegisterGeneratesTypistName(t *testing.T) {
	svc := newTestService(t)
	userID, reg := register(t, svc)
	if !regexp.MustCompile(`^Typist#[1-9][0-9]{3}$`).MatchString(reg.Profile.Username) {
		t.Fatalf("unexpected generated name %q", reg.Profile.Username)
	}
	if userID != reg.Profile.UserID {
		t.Fatalf("token resolves to %q, profile belongs to %q", userID, reg.Profile.UserID)
	}
	me, err := svc.Me(context.Background(), userID)
	if err != nil || me.Username != reg.Profile.Username {
		t.Fatalf("unexpected profile %+v (%v)", me, err)
	}
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	svc := newTestService(t)
	for _, token := range []string{"", "  ", "missing"} {
		if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("token %q: expected ErrNotAuthenticated, got %v", token, err)
		}
	}
}

func TestSubmitDenormalizesAndNormalizes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID, reg := register(t, svc)
	score, err := svc.Submit(ctx, userID, model.ScoreSubmission{
		WPM:         72,
		Accuracy:    97,
		Mode:        "timed (30s)",
		Difficulty:  "hard",
		Consistency: 81,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if score.ID == 0 || score.Username != reg.Profile.Username {
		t.Fatalf("unexpected score %+v", score)
	}
	if score.Mode != "Timed (30s)" || score.Difficulty != "Hard" {
		t.Fatalf("expected normalized names, got %q/%q", score.Mode, score.Difficulty)
	}
	if score.CreatedAt.IsZero() {
		t.Fatalf("expected created at stamp")
	}
}

func TestSubmitRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID, _ := register(t, svc)
	valid := model.ScoreSubmission{WPM: 50, Accuracy: 90, Mode: "Words", Difficulty: "Easy", Consistency: 70}

	if _, err := svc.Submit(ctx, "", valid); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := svc.Submit(ctx, "ghost", valid); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	bad := []model.ScoreSubmission{
		{WPM: 50, Accuracy: 90, Mode: "Marathon", Difficulty: "Easy"},
		{WPM: 50, Accuracy: 90, Mode: "Timed (45s)", Difficulty: "Easy"},
		{WPM: 50, Accuracy: 90, Mode: "Words", Difficulty: "Brutal"},
		{WPM: -1, Accuracy: 90, Mode: "Words", Difficulty: "Easy"},
		{WPM: 50, Accuracy: 101, Mode: "Words", Difficulty: "Easy"},
		{WPM: 50, Accuracy: 90, Mode: "Words", Difficulty: "Easy", Consistency: 150},
	}
	for _, sub := range bad {
		if _, err := svc.Submit(ctx, userID, sub); !errors.Is(err, ErrValidation) {
			t.Fatalf("%+v: expected ErrValidation, got %v", sub, err)
		}
	}
}

func TestLeaderboardFiltersAndUserScores(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice, _ := register(t, svc)
	bob, _ := register(t, svc)
	submissions := []struct {
		user string
		sub  model.ScoreSubmission
	}{
		{alice, model.ScoreSubmission{WPM: 60, Accuracy: 95, Mode: "Words", Difficulty: "Easy"}},
		{bob, model.ScoreSubmission{WPM: 85, Accuracy: 92, Mode: "Words", Difficulty: "Hard"}},
		{alice, model.ScoreSubmission{WPM: 75, Accuracy: 99, Mode: "Timed (60s)", Difficulty: "Hard"}},
	}
	for _, s := range submissions {
		if _, err := svc.Submit(ctx, s.user, s.sub); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	all, err := svc.Leaderboard(ctx, model.LeaderboardFilter{})
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(all) != 3 || all[0].WPM != 85 || all[2].WPM != 60 {
		t.Fatalf("unexpected leaderboard %+v", all)
	}
	hard, err := svc.Leaderboard(ctx, model.LeaderboardFilter{Difficulty: "hard"})
	if err != nil || len(hard) != 2 {
		t.Fatalf("unexpected hard board %+v (%v)", hard, err)
	}
	timed, err := svc.Leaderboard(ctx, model.LeaderboardFilter{Mode: "timed (60s)", Difficulty: "Hard"})
	if err != nil || len(timed) != 1 || timed[0].WPM != 75 {
		t.Fatalf("unexpected timed board %+v (%v)", timed, err)
	}
	if _, err := svc.Leaderboard(ctx, model.LeaderboardFilter{Mode: "sprint"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown mode, got %v", err)
	}

	mine, err := svc.UserScores(ctx, alice)
	if err != nil || len(mine) != 2 {
		t.Fatalf("unexpected user scores %+v (%v)", mine, err)
	}
	anon, err := svc.UserScores(ctx, "")
	if err != nil || anon == nil || len(anon) != 0 {
		t.Fatalf("expected empty list for anonymous, got %+v (%v)", anon, err)
	}
}

func TestUpdateUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice, _ := register(t, svc)
	bob, _ := register(t, svc)
	if _, err := svc.Submit(ctx, alice, model.ScoreSubmission{WPM: 40, Accuracy: 90, Mode: "Zen", Difficulty: "Easy"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	p, err := svc.UpdateUsername(ctx, alice, "  speedy_#1  ")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if p.Username != "speedy_#1" {
		t.Fatalf("expected trimmed name, got %q", p.Username)
	}
	scores, _ := svc.UserScores(ctx, alice)
	if len(scores) != 1 || scores[0].Username != "speedy_#1" {
		t.Fatalf("expected renamed scores, got %+v", scores)
	}

	if _, err := svc.UpdateUsername(ctx, alice, "speedy_#1"); err != nil {
		t.Fatalf("keeping own name should succeed: %v", err)
	}
	if _, err := svc.UpdateUsername(ctx, bob, "speedy_#1"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	for _, name := range []string{"ab", "this_name_is_way_too_long", "bad name", "emoji!"} {
		if _, err := svc.UpdateUsername(ctx, bob, name); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected ErrValidation, got %v", name, err)
		}
	}
	if _, err := svc.UpdateUsername(ctx, "", "valid_name"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestBindSubmitsAsTokenHolder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, reg := register(t, svc)
	score, err := svc.Bind(reg.Token).Submit(ctx, model.ScoreSubmission{WPM: 33, Accuracy: 88, Mode: "Passage", Difficulty: "Medium"})
	if err != nil {
		t.Fatalf("bound submit: %v", err)
	}
	if score.UserID != reg.Profile.UserID {
		t.Fatalf("expected score owned by %q, got %q", reg.Profile.UserID, score.UserID)
	}
	if _, err := svc.Bind("nope").Submit(ctx, model.ScoreSubmission{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

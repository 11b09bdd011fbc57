package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
)

// CreateUser registers an identity.
func (s *Store) CreateUser(ctx context.Context, userID string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, created_at) VALUES (?, ?)`, userID, createdAt.UnixMilli())
	return err
}

// CreateToken binds a bearer token to a user.
func (s *Store) CreateToken(ctx context.Context, token, userID string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`, token, userID, createdAt.UnixMilli())
	return err
}

// UserForToken resolves a bearer token to its user id.
func (s *Store) UserForToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM tokens WHERE token = ?`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

// InsertProfile creates the profile for a user.
func (s *Store) InsertProfile(ctx context.Context, p model.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, username, created_at) VALUES (?, ?, ?)`,
		p.UserID, p.Username, p.CreatedAt.UnixMilli())
	return err
}

// ProfileByUser returns the profile of a user.
func (s *Store) ProfileByUser(ctx context.Context, userID string) (model.Profile, error) {
	return s.profile(ctx, `SELECT user_id, username, created_at FROM profiles WHERE user_id = ?`, userID)
}

// ProfileByUsername returns the profile holding a display name.
func (s *Store) ProfileByUsername(ctx context.Context, username string) (model.Profile, error) {
	return s.profile(ctx, `SELECT user_id, username, created_at FROM profiles WHERE username = ?`, username)
}

func (s *Store) profile(ctx context.Context, query string, arg string) (model.Profile, error) {
	var p model.Profile
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&p.UserID, &p.Username, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	p.CreatedAt = time.UnixMilli(createdAt)
	return p, nil
}

// UpdateUsername renames a profile and rewrites the name denormalized onto its scores.
func (s *Store) UpdateUsername(ctx context.Context, userID, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `UPDATE profiles SET username = ? WHERE user_id = ?`, username, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE scores SET username = ? WHERE user_id = ?`, username, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertScore stores a leaderboard entry and returns its id.
func (s *Store) InsertScore(ctx context.Context, score model.Score) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (user_id, username, wpm, accuracy, mode, difficulty, consistency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		score.UserID,
		score.Username,
		score.WPM,
		score.Accuracy,
		score.Mode,
		score.Difficulty,
		score.Consistency,
		score.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// TopScores returns scores matching the filter, fastest first.
func (s *Store) TopScores(ctx context.Context, filter model.LeaderboardFilter, limit int) ([]model.Score, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, filter.Mode)
	}
	if filter.Difficulty != "" {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, user_id, username, wpm, accuracy, mode, difficulty, consistency, created_at
		FROM scores
		WHERE %s
		ORDER BY wpm DESC, created_at ASC
		LIMIT ?`, strings.Join(clauses, " AND "))
	return s.queryScores(ctx, query, args...)
}

// UserScores returns a user's most recent scores, newest first.
func (s *Store) UserScores(ctx context.Context, userID string, limit int) ([]model.Score, error) {
	return s.queryScores(ctx,
		`SELECT id, user_id, username, wpm, accuracy, mode, difficulty, consistency, created_at
		 FROM scores
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
}

func (s *Store) queryScores(ctx context.Context, query string, args ...any) ([]model.Score, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	scores := []model.Score{}
	for rows.Next() {
		var sc model.Score
		var createdAt int64
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.Username, &sc.WPM, &sc.Accuracy,
			&sc.Mode, &sc.Difficulty, &sc.Consistency, &createdAt); err != nil {
			return nil, err
		}
		sc.CreatedAt = time.UnixMilli(createdAt)
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

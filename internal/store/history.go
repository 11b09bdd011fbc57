package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
)

// HistoryLimit is how many local history records are kept.
const HistoryLimit = 50

const highScoreKey = "high_score"

// AppendHistory stores a record and drops the oldest ones beyond HistoryLimit.
func (s *Store) AppendHistory(ctx context.Context, rec model.HistoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (id, created_at, wpm, accuracy, correct_chars, incorrect_chars, consistency, mode, difficulty)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.WPM,
		rec.Accuracy,
		rec.CorrectChars,
		rec.IncorrectChars,
		rec.Consistency,
		rec.Mode,
		rec.Difficulty,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE seq NOT IN (
			SELECT seq FROM history ORDER BY seq DESC LIMIT ?
		)`, HistoryLimit); err != nil {
		return err
	}
	return tx.Commit()
}

// ListHistory returns the most recent limit records, oldest first. limit <= 0 returns all.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, wpm, accuracy, correct_chars, incorrect_chars, consistency, mode, difficulty
		 FROM (SELECT * FROM history ORDER BY seq DESC LIMIT ?)
		 ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var records []model.HistoryRecord
	for rows.Next() {
		var rec model.HistoryRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.WPM, &rec.Accuracy, &rec.CorrectChars,
			&rec.IncorrectChars, &rec.Consistency, &rec.Mode, &rec.Difficulty); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ClearHistory removes every history record. The high score is kept.
func (s *Store) ClearHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}

// HighScore returns the best WPM ever recorded locally, 0 when none.
func (s *Store) HighScore(ctx context.Context) (int, error) {
	value, err := s.getMeta(ctx, highScoreKey)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetHighScore overwrites the stored high score.
func (s *Store) SetHighScore(ctx context.Context, wpm int) error {
	return s.setMeta(ctx, highScoreKey, strconv.Itoa(wpm))
}

// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ModeKind identifies how a session runs and ends.
type ModeKind int

// Mode kinds.
const (
	Timed ModeKind = iota
	Passage
	Words
	SuddenDeath
	Zen
)

// WordsDuration is the timer length of Words mode in seconds.
const WordsDuration = 60

// TimedDurations lists the allowed Timed mode lengths in seconds.
var TimedDurations = []int{15, 30, 60, 120}

// Mode is a session mode. Duration is only meaningful for Timed.
type Mode struct {
	Kind     ModeKind
	Duration int
}

// TimedMode returns a Timed mode of the given length in seconds.
func TimedMode(seconds int) Mode {
	return Mode{Kind: Timed, Duration: seconds}
}

// Countdown reports whether the mode runs a countdown timer.
func (m Mode) Countdown() bool {
	return m.Kind == Timed || m.Kind == Words
}

// Seconds returns the countdown length, or 0 for up-counting modes.
func (m Mode) Seconds() int {
	switch m.Kind {
	case Timed:
		return m.Duration
	case Words:
		return WordsDuration
	default:
		return 0
	}
}

// String renders the display name, which is also the persisted name.
func (m Mode) String() string {
	switch m.Kind {
	case Timed:
		return fmt.Sprintf("Timed (%ds)", m.Duration)
	case Passage:
		return "Passage"
	case Words:
		return "Words"
	case SuddenDeath:
		return "Sudden Death"
	case Zen:
		return "Zen"
	default:
		return "Unknown"
	}
}

// Validate checks the mode kind and timer length.
func (m Mode) Validate() error {
	switch m.Kind {
	case Timed:
		for _, d := range TimedDurations {
			if d == m.Duration {
				return nil
			}
		}
		return fmt.Errorf("timed duration must be one of 15, 30, 60, 120 (got %d)", m.Duration)
	case Passage, Words, SuddenDeath, Zen:
		return nil
	default:
		return fmt.Errorf("unknown mode kind %d", m.Kind)
	}
}

// ParseMode accepts CLI spellings ("timed", "sudden-death") and display names ("Timed (30s)").
// duration is used for "timed" and ignored otherwise.
func ParseMode(name string, duration int) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	var seconds int
	if _, err := fmt.Sscanf(normalized, "timed (%ds)", &seconds); err == nil {
		m := TimedMode(seconds)
		return m, m.Validate()
	}
	switch normalized {
	case "timed":
		m := TimedMode(duration)
		return m, m.Validate()
	case "passage":
		return Mode{Kind: Passage}, nil
	case "words":
		return Mode{Kind: Words}, nil
	case "sudden-death", "sudden death", "suddendeath":
		return Mode{Kind: SuddenDeath}, nil
	case "zen":
		return Mode{Kind: Zen}, nil
	}
	return Mode{}, fmt.Errorf("unknown mode %q", name)
}

// Difficulty selects the text tier.
type Difficulty string

// Difficulty tiers.
const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists all tiers in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty is case-insensitive.
func ParseDifficulty(name string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(name), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", name)
}

// SessionConfig is fixed for the lifetime of one session.
type SessionConfig struct {
	Mode       Mode
	Difficulty Difficulty
}

// Validate checks mode and difficulty.
func (c SessionConfig) Validate() error {
	if err := c.Mode.Validate(); err != nil {
		return err
	}
	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		return err
	}
	return nil
}

// Result is the finalized summary of one session.
type Result struct {
	WPM            int
	Accuracy       int
	CorrectChars   int
	IncorrectChars int
	Consistency    int
	Mode           Mode
	Difficulty     Difficulty
	KeyErrors      map[string]int
	WPMSamples     []int
	StartedAt      time.Time
	EndedAt        time.Time
}

// HistoryRecord is a locally persisted session summary.
type HistoryRecord struct {
	ID             string    `yaml:"id"`
	CreatedAt      time.Time `yaml:"date"`
	WPM            int       `yaml:"wpm"`
	Accuracy       int       `yaml:"accuracy"`
	CorrectChars   int       `yaml:"correct_chars"`
	IncorrectChars int       `yaml:"incorrect_chars"`
	Consistency    int       `yaml:"consistency"`
	Mode           string    `yaml:"mode"`
	Difficulty     string    `yaml:"difficulty"`
}

// Profile is a leaderboard identity with its display name.
type Profile struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScoreSubmission is what a client sends to the leaderboard.
type ScoreSubmission struct {
	WPM         int    `json:"wpm"`
	Accuracy    int    `json:"accuracy"`
	Mode        string `json:"mode"`
	Difficulty  string `json:"difficulty"`
	Consistency int    `json:"consistency"`
}

// Score is a stored leaderboard entry. Username is denormalized from the profile.
type Score struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	WPM         int       `json:"wpm"`
	Accuracy    int       `json:"accuracy"`
	Mode        string    `json:"mode"`
	Difficulty  string    `json:"difficulty"`
	Consistency int       `json:"consistency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LeaderboardFilter narrows leaderboard queries. Empty fields match everything.
type LeaderboardFilter struct {
	Mode       string
	Difficulty string
}

// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice    PracticeConfig    `toml:"practice"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
}

// PracticeConfig maps session settings.
type PracticeConfig struct {
	Mode       *string `toml:"mode"`
	Duration   *int    `toml:"duration"`
	Difficulty *string `toml:"difficulty"`
	WordList   *string `toml:"wordlist"`
	Lang       *string `toml:"lang"`
}

// LeaderboardConfig maps shared leaderboard settings.
type LeaderboardConfig struct {
	Server *string `toml:"server"`
	Submit *bool   `toml:"submit"`
}

// Credentials is the identity issued by a leaderboard server.
type Credentials struct {
	Server   string `toml:"server"`
	Token    string `toml:"token"`
	Username string `toml:"username"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	found, err := decodeFile(path, &cfg)
	if err != nil || !found {
		return FileConfig{}, err
	}
	return cfg, nil
}

// LoadCredentials reads saved credentials. A missing file yields empty credentials.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials
	found, err := decodeFile(path, &creds)
	if err != nil || !found {
		return Credentials{}, err
	}
	return creds, nil
}

// SaveCredentials writes creds to path, readable by the owner only.
func SaveCredentials(path string, creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "credentials-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp credentials: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to restrict credentials: %w", err)
	}
	if err := toml.NewEncoder(tmpFile).Encode(creds); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close credentials: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func decodeFile(path string, v any) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

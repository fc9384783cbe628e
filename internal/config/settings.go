package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds state that persists between runs
type Settings struct {
	// When the background release check last ran
	LastUpdateCheck time.Time `json:"last_update_check,omitzero"`

	// Newest version seen by that check
	LatestSeen string `json:"latest_seen,omitempty"`
}

// SettingsPath returns the path to the settings file
func SettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, Dir, "settings.json")
}

// LoadSettings reads settings from disk
func LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Save writes settings to disk
func (s *Settings) Save() error {
	path := SettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// CheckDue reports whether a background check should run now.
// A zero interval disables the check.
func (s *Settings) CheckDue(interval time.Duration, now time.Time) bool {
	if interval <= 0 {
		return false
	}
	if s.LastUpdateCheck.IsZero() {
		return true
	}
	return now.Sub(s.LastUpdateCheck) >= interval
}

// MarkChecked records a finished background check.
func (s *Settings) MarkChecked(now time.Time, latest string) {
	s.LastUpdateCheck = now
	if latest != "" {
		s.LatestSeen = latest
	}
}

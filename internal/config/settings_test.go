package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSettingsSaveAndLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Settings{}
	s.MarkChecked(checked, "1.4.0")

	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if !loaded.LastUpdateCheck.Equal(checked) {
		t.Errorf("LastUpdateCheck = %v, want %v", loaded.LastUpdateCheck, checked)
	}
	if loaded.LatestSeen != "1.4.0" {
		t.Errorf("LatestSeen = %q, want %q", loaded.LatestSeen, "1.4.0")
	}
}

func TestLoadSettingsNonExistent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !s.LastUpdateCheck.IsZero() {
		t.Errorf("LastUpdateCheck = %v, want zero", s.LastUpdateCheck)
	}
}

func TestSettingsPath(t *testing.T) {
	path := SettingsPath()

	if filepath.Base(path) != "settings.json" {
		t.Errorf("SettingsPath base = %q, want %q", filepath.Base(path), "settings.json")
	}
	if filepath.Base(filepath.Dir(path)) != Dir {
		t.Errorf("SettingsPath parent = %q, want %q", filepath.Base(filepath.Dir(path)), Dir)
	}
}

func TestSettingsCheckDue(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		last     time.Time
		interval time.Duration
		want     bool
	}{
		{"never checked", time.Time{}, 24 * time.Hour, true},
		{"checked recently", now.Add(-time.Hour), 24 * time.Hour, false},
		{"interval elapsed", now.Add(-25 * time.Hour), 24 * time.Hour, true},
		{"disabled", time.Time{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{LastUpdateCheck: tt.last}
			if got := s.CheckDue(tt.interval, now); got != tt.want {
				t.Errorf("CheckDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

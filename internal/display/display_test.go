package display

import (
	"strings"
	"testing"
)

func TestColorsDisabled(t *testing.T) {
	SetColorsEnabled(false)
	defer SetColorsEnabled(true)

	for name, fn := range map[string]func(string) string{
		"Success": Success, "Error": Error, "Warning": Warning,
		"Info": Info, "Muted": Muted, "Bold": Bold, "Cyan": Cyan,
	} {
		if got := fn("text"); got != "text" {
			t.Errorf("%s() = %q, want plain text", name, got)
		}
	}
}

func TestColorsEnabled(t *testing.T) {
	SetColorsEnabled(true)

	got := Success("ok")
	if !strings.HasPrefix(got, green) || !strings.HasSuffix(got, reset) {
		t.Errorf("Success() = %q, want green escape codes", got)
	}
}

func TestInitColors(t *testing.T) {
	defer SetColorsEnabled(true)

	t.Setenv("TERM", "xterm")
	InitColors(true)
	if ColorsEnabled() {
		t.Error("--no-color should disable colors")
	}

	t.Setenv("NO_COLOR", "1")
	InitColors(false)
	if ColorsEnabled() {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestMessages(t *testing.T) {
	SetColorsEnabled(false)
	defer SetColorsEnabled(true)

	tests := []struct {
		got  string
		want string
	}{
		{SuccessMsg("updated to %s", "1.2.0"), "✓ updated to 1.2.0"},
		{ErrorMsg("failed"), "✗ failed"},
		{WarningMsg("unverified"), "⚠ unverified"},
		{InfoMsg("checking"), "→ checking"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestFormatPhase(t *testing.T) {
	tests := []struct {
		phase string
		want  string
	}{
		{"verify", "Verifying download"},
		{"lock", "Waiting for another update"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := FormatPhase(tt.phase); got != tt.want {
			t.Errorf("FormatPhase(%q) = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := Bytes(tt.n); got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	SetColorsEnabled(false)
	defer SetColorsEnabled(true)

	got := Table([]string{"TAG", "VERSION"}, [][]string{
		{"example-v1.10.0", "1.10.0"},
		{"example-v1.2.0", "1.2.0"},
	})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Table() has %d lines, want 4:\n%s", len(lines), got)
	}
	if lines[0] != "TAG              VERSION" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[3] != "example-v1.2.0   1.2.0" {
		t.Errorf("row = %q", lines[3])
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("checksums.txt", 8); got != "check..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("short", 8); got != "short" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("ünïcödé-name", 6); got != "ünï..." {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestErrorWithSuggestions(t *testing.T) {
	SetColorsEnabled(false)
	defer SetColorsEnabled(true)

	got := UnverifiedError("no checksum published")
	for _, want := range []string{"✗ no checksum published", "Suggested actions:", "--allow-unverified"} {
		if !strings.Contains(got, want) {
			t.Errorf("UnverifiedError() = %q, want to contain %q", got, want)
		}
	}
}

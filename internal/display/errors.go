package display

import (
	"fmt"
	"strings"
)

// Suggestion represents a suggested action for error recovery.
type Suggestion struct {
	Command     string
	Description string
}

// ErrorWithSuggestions formats an error message with actionable suggestions.
func ErrorWithSuggestions(message string, suggestions []Suggestion) string {
	var sb strings.Builder

	sb.WriteString(ErrorMsg("%s", message))
	sb.WriteString("\n")

	if len(suggestions) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Muted("Suggested actions:"))
		sb.WriteString("\n")
		for _, s := range suggestions {
			fmt.Fprintf(&sb, "  %s %s - %s\n", Muted("•"), Cyan(s.Command), s.Description)
		}
	}

	return sb.String()
}

// ConfigNotFoundError explains how to point selfup at a config file.
func ConfigNotFoundError(detail string) string {
	return ErrorWithSuggestions(
		"No selfup configuration found ("+detail+")",
		[]Suggestion{
			{Command: "selfup --config path/to/selfup.toml <command>", Description: "Use an explicit config file"},
			{Command: "export SELFUP_CONFIG=path/to/selfup.toml", Description: "Set a default config file"},
		},
	)
}

// NotWritableError is shown when the binary cannot be replaced by this user.
func NotWritableError(dir string) string {
	return ErrorWithSuggestions(
		"Cannot write to "+dir,
		[]Suggestion{
			{Command: "sudo selfup update", Description: "Run the update with elevated permissions"},
		},
	)
}

// UnverifiedError is shown when a release publishes no digest for the asset.
func UnverifiedError(message string) string {
	return ErrorWithSuggestions(
		message,
		[]Suggestion{
			{Command: "selfup update --allow-unverified", Description: "Install without a published checksum"},
		},
	)
}

// LockedError is shown when another update holds the lock.
func LockedError(message string) string {
	return ErrorWithSuggestions(
		message,
		[]Suggestion{
			{Command: "selfup update", Description: "Retry once the other update has finished"},
		},
	)
}

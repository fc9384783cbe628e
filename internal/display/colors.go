// Package display formats CLI output for terminals.
package display

import (
	"fmt"
	"os"
	"sync"
)

// ANSI escape sequences
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
	gray   = "\033[90m"
)

var (
	colorEnabled     = true
	colorInitialized = false
	colorMu          sync.RWMutex
)

// InitColors decides once whether output is colored. --no-color, NO_COLOR
// and TERM=dumb all turn colors off.
func InitColors(noColor bool) {
	colorMu.Lock()
	defer colorMu.Unlock()

	colorInitialized = true
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	colorEnabled = !noColor && !noColorEnv && os.Getenv("TERM") != "dumb"
}

// ColorsEnabled returns whether colors are currently enabled.
func ColorsEnabled() bool {
	colorMu.RLock()
	initialized, enabled := colorInitialized, colorEnabled
	colorMu.RUnlock()

	if !initialized {
		InitColors(false)
		return ColorsEnabled()
	}
	return enabled
}

// SetColorsEnabled overrides color detection (tests use this).
func SetColorsEnabled(enabled bool) {
	colorMu.Lock()
	defer colorMu.Unlock()
	colorEnabled = enabled
	colorInitialized = true
}

func colorize(text, code string) string {
	if !ColorsEnabled() {
		return text
	}
	return code + text + reset
}

func Success(text string) string { return colorize(text, green) }
func Error(text string) string   { return colorize(text, red) }
func Warning(text string) string { return colorize(text, yellow) }
func Info(text string) string    { return colorize(text, blue) }
func Muted(text string) string   { return colorize(text, gray) }
func Bold(text string) string    { return colorize(text, bold) }

// Cyan is used for commands the user can run.
func Cyan(text string) string { return colorize(text, cyan) }

// SuccessMsg formats a message with a check mark.
func SuccessMsg(format string, args ...any) string {
	return Success("✓") + " " + fmt.Sprintf(format, args...)
}

// ErrorMsg formats a message with a cross, all in red.
func ErrorMsg(format string, args ...any) string {
	return Error("✗") + " " + Error(fmt.Sprintf(format, args...))
}

// WarningMsg formats a message with a warning sign, all in yellow.
func WarningMsg(format string, args ...any) string {
	return Warning("⚠") + " " + Warning(fmt.Sprintf(format, args...))
}

// InfoMsg formats a message with an arrow.
func InfoMsg(format string, args ...any) string {
	return Info("→") + " " + fmt.Sprintf(format, args...)
}

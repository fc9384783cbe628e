// Package progress draws a live status line for long-running downloads.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/valksor/go-selfup/internal/display"
)

// redrawInterval throttles how often the line is redrawn.
const redrawInterval = 200 * time.Millisecond

// StatusLine counts bytes written to it and redraws a single terminal line
// with the running total.
type StatusLine struct {
	out         io.Writer
	phase       string
	total       int64
	written     int64
	startTime   time.Time
	lastUpdate  time.Time
	updateCount int
	now         func() time.Time
	mu          sync.Mutex
}

// NewStatusLine creates a status line for phase. total is the expected
// size in bytes, or 0 when unknown.
func NewStatusLine(out io.Writer, phase string, total int64) *StatusLine {
	s := &StatusLine{out: out, phase: phase, total: total, now: time.Now}
	s.startTime = s.now()
	return s
}

// Write records progress; it never fails so it can sit in an io.TeeReader.
func (s *StatusLine) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written += int64(len(p))
	if now := s.now(); now.Sub(s.lastUpdate) >= redrawInterval {
		s.draw(now)
	}
	return len(p), nil
}

func (s *StatusLine) draw(now time.Time) {
	amount := display.Bytes(s.written)
	if s.total > 0 {
		amount = fmt.Sprintf("%s / %s (%d%%)", amount, display.Bytes(s.total), s.written*100/s.total)
	}

	elapsed := ""
	if d := now.Sub(s.startTime); d >= 5*time.Second {
		elapsed = " " + formatDuration(d)
	}

	_, _ = fmt.Fprintf(s.out, "\r%s %s %s%s\x1b[K", display.Info("→"), s.phase, amount, display.Muted(elapsed))
	s.lastUpdate = now
	s.updateCount++
}

// Done replaces the line with a completion mark and the elapsed time.
func (s *StatusLine) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.out, "\r%s %s %s (%s)\x1b[K\n",
		display.Success("✓"), s.phase, display.Bytes(s.written), formatDuration(s.now().Sub(s.startTime)))
}

// Written returns the number of bytes seen so far.
func (s *StatusLine) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// UpdateCount returns how many times the line was redrawn.
func (s *StatusLine) UpdateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCount
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

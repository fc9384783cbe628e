package progress

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valksor/go-selfup/internal/display"
)

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}

func TestStatusLineWrite(t *testing.T) {
	display.SetColorsEnabled(false)
	defer display.SetColorsEnabled(true)

	var out bytes.Buffer
	sl := NewStatusLine(&out, "Downloading example", 2048)
	sl.now = fakeClock(time.Second)
	sl.startTime = sl.now()

	n, err := sl.Write(make([]byte, 1024))
	if n != 1024 || err != nil {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	if sl.Written() != 1024 {
		t.Errorf("Written() = %d, want 1024", sl.Written())
	}
	if sl.UpdateCount() != 1 {
		t.Errorf("UpdateCount() = %d, want 1", sl.UpdateCount())
	}
	if !strings.Contains(out.String(), "1.0 KiB / 2.0 KiB (50%)") {
		t.Errorf("status line = %q", out.String())
	}
}

func TestStatusLineThrottles(t *testing.T) {
	var out bytes.Buffer
	sl := NewStatusLine(&out, "Downloading", 0)
	sl.now = fakeClock(10 * time.Millisecond)
	sl.startTime = sl.now()

	for range 100 {
		_, _ = sl.Write([]byte("x"))
	}

	// 100 writes 10ms apart span one second: five redraws at most.
	if got := sl.UpdateCount(); got < 1 || got > 5 {
		t.Errorf("UpdateCount() = %d, want between 1 and 5", got)
	}
}

func TestStatusLineTee(t *testing.T) {
	var out bytes.Buffer
	sl := NewStatusLine(&out, "Downloading", 5)

	data, err := io.ReadAll(io.TeeReader(strings.NewReader("hello"), sl))
	if err != nil || string(data) != "hello" {
		t.Fatalf("ReadAll() = %q, %v", data, err)
	}
	if sl.Written() != 5 {
		t.Errorf("Written() = %d, want 5", sl.Written())
	}
}

func TestStatusLineDone(t *testing.T) {
	display.SetColorsEnabled(false)
	defer display.SetColorsEnabled(true)

	var out bytes.Buffer
	sl := NewStatusLine(&out, "Downloading", 0)
	sl.now = fakeClock(30 * time.Second)
	sl.startTime = sl.now()

	sl.Done()

	if !strings.HasSuffix(out.String(), "\n") || !strings.Contains(out.String(), "✓ Downloading 0 B (0:30)") {
		t.Errorf("Done() output = %q", out.String())
	}
}

func TestStatusLineConcurrent(t *testing.T) {
	sl := NewStatusLine(io.Discard, "Concurrent", 0)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = sl.Write([]byte("abc"))
		}()
		go func() {
			defer wg.Done()
			sl.UpdateCount()
		}()
	}
	wg.Wait()

	if sl.Written() != 30 {
		t.Errorf("Written() = %d, want 30", sl.Written())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{61 * time.Second, "1:01"},
		{10*time.Minute + 5*time.Second, "10:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

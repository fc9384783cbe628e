package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		message      string
		wantContains string
		wantCode     int
	}{
		{
			name:         "with message",
			code:         404,
			message:      "not found",
			wantContains: "HTTP 404: not found",
			wantCode:     404,
		},
		{
			name:         "without message",
			code:         500,
			message:      "",
			wantContains: "HTTP 500",
			wantCode:     500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewHTTPError(tt.code, tt.message)

			if got := err.Error(); got != tt.wantContains {
				t.Errorf("HTTPError.Error() = %q, want %q", got, tt.wantContains)
			}

			if got := err.HTTPStatusCode(); got != tt.wantCode {
				t.Errorf("HTTPError.HTTPStatusCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "HTTP 429 Too Many Requests", err: NewHTTPError(http.StatusTooManyRequests, "rate limit"), want: true},
		{name: "HTTP 503 Service Unavailable", err: NewHTTPError(http.StatusServiceUnavailable, ""), want: true},
		{name: "HTTP 504 Gateway Timeout", err: NewHTTPError(http.StatusGatewayTimeout, ""), want: true},
		{name: "HTTP 502 Bad Gateway", err: NewHTTPError(http.StatusBadGateway, ""), want: true},
		{name: "HTTP 401 Unauthorized", err: NewHTTPError(http.StatusUnauthorized, ""), want: false},
		{name: "HTTP 404 Not Found", err: NewHTTPError(http.StatusNotFound, ""), want: false},
		{name: "HTTP 500 Internal Server Error", err: NewHTTPError(http.StatusInternalServerError, ""), want: false},
		{name: "wrapped 503", err: fmt.Errorf("list: %w", NewHTTPError(503, "")), want: true},
		{name: "unexpected EOF", err: io.ErrUnexpectedEOF, want: true},
		{name: "net op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: false},
		{name: "generic error", err: errors.New("generic error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestWithRetry(t *testing.T) {
	transient := NewHTTPError(http.StatusServiceUnavailable, "")
	permanent := NewHTTPError(http.StatusNotFound, "")

	tests := []struct {
		name      string
		policy    RetryPolicy
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "success first try", policy: fastPolicy(3), failures: 0, wantCalls: 1},
		{name: "transient then success", policy: fastPolicy(3), failures: 2, failWith: transient, wantCalls: 3},
		{name: "exhausted", policy: fastPolicy(2), failures: 5, failWith: transient, wantCalls: 2, wantErr: transient},
		{name: "permanent stops", policy: fastPolicy(5), failures: 5, failWith: permanent, wantCalls: 1, wantErr: permanent},
		{name: "single attempt default", policy: SingleAttempt(), failures: 5, failWith: transient, wantCalls: 1, wantErr: transient},
		{name: "zero attempts treated as one", policy: RetryPolicy{}, failures: 5, failWith: transient, wantCalls: 1, wantErr: transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), tt.policy, func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("WithRetry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Hour, Multiplier: 2}

	calls := 0
	err := WithRetry(ctx, policy, func() error {
		calls++
		cancel()
		return NewHTTPError(http.StatusBadGateway, "")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAttempts(t *testing.T) {
	p := Attempts(4, 5*time.Second)
	if p.MaxAttempts != 4 || p.InitialBackoff != 5*time.Second {
		t.Errorf("Attempts() = %+v", p)
	}

	p = Attempts(0, 0)
	if p != SingleAttempt() {
		t.Errorf("Attempts(0, 0) = %+v, want SingleAttempt()", p)
	}
}

func TestNewSetsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := New(Options{UserAgent: "selfup-test", Rate: 100})
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	_ = resp.Body.Close()

	if got != "selfup-test" {
		t.Errorf("User-Agent = %q, want %q", got, "selfup-test")
	}
}

func TestCheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(Options{})

	resp, err := client.Get(server.URL + "/ok")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := CheckStatus(resp); err != nil {
		t.Errorf("CheckStatus(200) = %v, want nil", err)
	}
	_ = resp.Body.Close()

	resp, err = client.Get(server.URL + "/missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	err = CheckStatus(resp)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Errorf("CheckStatus(404) = %v, want HTTPError 404", err)
	}
}

// Package httpclient provides the shared HTTP plumbing for release sources:
// pooled transports, client-side rate limiting and an explicit retry policy.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"

	"github.com/valksor/go-selfup/internal/log"
)

// Default configuration values used across sources.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultBackoff    = 1 * time.Second
	MaxBackoff        = 30 * time.Second
	BackoffMultiplier = 2
	DefaultUserAgent  = "selfup"
)

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	Message string
	Code    int
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// HTTPStatusCode returns the HTTP status code.
func (e *HTTPError) HTTPStatusCode() int {
	return e.Code
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// RetryPolicy controls retry behavior. MaxAttempts counts the first call,
// so a policy with MaxAttempts 1 never retries.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// SingleAttempt returns the default policy: one call, no retry.
func SingleAttempt() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    1,
		InitialBackoff: DefaultBackoff,
		MaxBackoff:     MaxBackoff,
		Multiplier:     BackoffMultiplier,
	}
}

// Attempts returns the policy with the given attempt count and initial backoff.
func Attempts(n int, backoff time.Duration) RetryPolicy {
	p := SingleAttempt()
	if n > 1 {
		p.MaxAttempts = n
	}
	if backoff > 0 {
		p.InitialBackoff = backoff
	}
	return p
}

// ShouldRetry determines if an error is transient.
// Network failures and HTTP 429, 502, 503 and 504 are retryable; a cancelled
// or expired context never is.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr interface{ HTTPStatusCode() int }
	if errors.As(err, &httpErr) {
		code := httpErr.HTTPStatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusServiceUnavailable ||
			code == http.StatusGatewayTimeout ||
			code == http.StatusBadGateway
	}

	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryFunc is a function that performs an operation that may need retrying.
type RetryFunc func() error

// WithRetry runs fn until it succeeds, fails permanently, or the policy runs
// out of attempts. Waits between attempts grow exponentially and stop early
// when ctx is done.
func WithRetry(ctx context.Context, policy RetryPolicy, fn RetryFunc) error {
	attempts := max(policy.MaxAttempts, 1)
	backoff := policy.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !ShouldRetry(err) || attempt == attempts {
			break
		}

		log.DebugContext(ctx, "retrying request",
			"attempt", attempt, "backoff", backoff, log.Err(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
			backoff = time.Duration(float64(backoff) * policy.Multiplier)
			if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
				backoff = policy.MaxBackoff
			}
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return lastErr
}

// Options configures a client built by New.
type Options struct {
	// Timeout bounds a whole request including the body read. Zero leaves
	// the bound to the request context.
	Timeout time.Duration
	// Rate is the request budget per second. Zero disables limiting.
	Rate      float64
	UserAgent string
}

// New returns a client over a pooled cleanhttp transport, with optional
// rate limiting and a default User-Agent.
func New(opts Options) *http.Client {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = opts.Timeout

	var rt http.RoundTripper = client.Transport
	if opts.Rate > 0 {
		burst := max(int(opts.Rate), 1)
		rt = &limitedTransport{base: rt, limiter: rate.NewLimiter(rate.Limit(opts.Rate), burst)}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client.Transport = &userAgentTransport{base: rt, agent: ua}

	return client
}

type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(r)
}

// CheckStatus turns a non-2xx response into an *HTTPError. The body is
// drained and closed in that case.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode))
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"zenfeed/internal/ratelimiter"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxBodyBytes          = 10 << 20
	defaultRetryInterval  = 500 * time.Millisecond
	defaultRequestTimeout = 20 * time.Second
)

var ErrBodyTooLarge = errors.New("response body is too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (URL = %s)", e.StatusCode, e.URL)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// HTTPClient performs paced GET requests with bounded retries of transient
// failures. It is shared by feed fetching and full text extraction.
type HTTPClient struct {
	client        *http.Client
	limiter       *ratelimiter.RateLimiter
	userAgent     string
	retries       uint64
	retryInterval time.Duration
	log           *slog.Logger
}

type HTTPClientOption func(*HTTPClient)

func WithRateLimiter(rl *ratelimiter.RateLimiter) HTTPClientOption {
	return func(c *HTTPClient) { c.limiter = rl }
}

func WithRetries(retries uint64, interval time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.retries = retries
		if interval > 0 {
			c.retryInterval = interval
		}
	}
}

func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

func NewHTTPClient(userAgent string, log *slog.Logger, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		client:        &http.Client{Timeout: defaultRequestTimeout},
		userAgent:     strings.TrimSpace(userAgent),
		retryInterval: defaultRetryInterval,
		log:           log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the response body of rawURL. Network errors, 429 and 5xx
// responses are retried; everything else fails immediately.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)

	attempt := 0
	body, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++

		data, getErr := c.get(ctx, rawURL)
		if getErr == nil {
			return data, nil
		}

		if ctx.Err() != nil {
			return nil, backoff.Permanent(getErr)
		}

		var statusErr *StatusError
		if errors.As(getErr, &statusErr) && !statusErr.retryable() {
			return nil, backoff.Permanent(getErr)
		}

		if errors.Is(getErr, ErrBodyTooLarge) {
			return nil, backoff.Permanent(getErr)
		}

		c.log.DebugContext(ctx, "Retrying request",
			"error", getErr,
			"url", rawURL,
			"attempt", attempt)

		return nil, getErr
	}, policy)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (c *HTTPClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	release, err := c.limiter.Acquire(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("wait for host slot: %w", err)
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req) //nolint:gosec // URLs come from the user's own subscriptions
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w (limit = %d bytes, URL = %s)", ErrBodyTooLarge, maxBodyBytes, rawURL)
	}

	return body, nil
}

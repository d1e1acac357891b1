package link

import (
	"context"
	"net/http"
	"time"

	"github.com/oshokin/cuda-installer/internal/logger"
)

// DefaultTimeout bounds a single probe when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Checker issues HEAD requests and reports reachability.
type Checker struct {
	// client performs the requests; redirects are followed.
	client *http.Client
	// timeout bounds each probe.
	timeout time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// IsReachable is true only when a HEAD request to url ends with 200 OK.
// Transport failures and every other status report false.
func (c *Checker) IsReachable(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, http.NoBody)
	if err != nil {
		logger.DebugKV(ctx, "Invalid probe request", "url", url, "error", err)

		return false
	}

	response, err := c.client.Do(req)
	if err != nil {
		logger.DebugKV(ctx, "Probe failed", "url", url, "error", err)

		return false
	}

	_ = response.Body.Close()

	logger.DebugKV(ctx, "Probe finished", "url", url, "status", response.StatusCode)

	return response.StatusCode == http.StatusOK
}

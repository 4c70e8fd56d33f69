package linkcheck

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one probe.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent is sent with probes. Some CDNs reject HEAD requests
	// without a browser agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Checker probes one URL.
type Checker interface {
	IsBroken(ctx context.Context, url string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, url string) bool

// IsBroken calls f.
func (f CheckerFunc) IsBroken(ctx context.Context, url string) bool {
	return f(ctx, url)
}

// IsBrokenStatus reports whether an HTTP status marks a link as broken.
func IsBrokenStatus(code int) bool {
	return code >= http.StatusBadRequest
}

// HTTPChecker probes links with HEAD requests.
type HTTPChecker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// HTTPCheckerOption configures an HTTPChecker.
type HTTPCheckerOption func(*HTTPChecker)

// WithClient replaces the HTTP client. Its redirect policy is kept.
func WithClient(client *http.Client) HTTPCheckerOption {
	return func(c *HTTPChecker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) HTTPCheckerOption {
	return func(c *HTTPChecker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) HTTPCheckerOption {
	return func(c *HTTPChecker) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewHTTPChecker returns an HTTPChecker with a 5 second timeout.
func NewHTTPChecker(opts ...HTTPCheckerOption) *HTTPChecker {
	c := &HTTPChecker{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsBroken sends a HEAD request to url. Any failure to obtain a response
// counts as broken.
func (c *HTTPChecker) IsBroken(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return true
	}
	_ = resp.Body.Close()
	return IsBrokenStatus(resp.StatusCode)
}

package transport

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent mimics a desktop Chrome.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

	// DefaultMaxBodySize caps a response body.
	DefaultMaxBodySize int64 = 50 * 1024 * 1024

	defaultRetryInterval = 500 * time.Millisecond
	maxRetryInterval     = 5 * time.Second
)

// Transport fetches a URL within timeout.
type Transport interface {
	Get(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error)
}

// Response is an HTTP answer of any status.
type Response struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Cookie is a browser cookie to be injected into the jar.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
}

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	client        *http.Client
	jar           *cookiejar.Jar
	headers       http.Header
	limiter       *rate.Limiter
	maxRetries    uint64
	retryInterval time.Duration
	maxBodySize   int64
	logger        *slog.Logger
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *HTTPTransport) {
		if ua != "" {
			t.headers.Set("User-Agent", ua)
		}
	}
}

// WithHeaders adds headers to every request, overriding the defaults.
func WithHeaders(headers map[string]string) Option {
	return func(t *HTTPTransport) {
		for k, v := range headers {
			t.headers.Set(k, v)
		}
	}
}

// WithRateLimit spaces requests at least interval apart. Zero disables it.
func WithRateLimit(interval time.Duration) Option {
	return func(t *HTTPTransport) {
		if interval > 0 {
			t.limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			t.limiter = nil
		}
	}
}

// WithRetries retries network errors and 5xx/429 answers up to n times.
func WithRetries(n int, interval time.Duration) Option {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.maxRetries = uint64(n)
		}
		if interval > 0 {
			t.retryInterval = interval
		}
	}
}

// WithMaxBodySize caps the body size. Zero keeps the default.
func WithMaxBodySize(n int64) Option {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.maxBodySize = n
		}
	}
}

// WithRoundTripper replaces the underlying network transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *HTTPTransport) {
		t.client.Transport = rt
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// New returns an HTTPTransport with an empty cookie jar and browser-like headers.
func New(opts ...Option) (*HTTPTransport, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	headers := make(http.Header)
	headers.Set("User-Agent", DefaultUserAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	headers.Set("Accept-Encoding", "gzip, br")

	t := &HTTPTransport{
		client:        &http.Client{Jar: jar},
		jar:           jar,
		headers:       headers,
		retryInterval: defaultRetryInterval,
		maxBodySize:   DefaultMaxBodySize,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// SetCookies injects cookies into the jar, each under its own domain, and
// returns how many were accepted. Cookies without a domain are skipped.
func (t *HTTPTransport) SetCookies(cookies []Cookie) int {
	n := 0
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" || c.Name == "" {
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		u := &url.URL{Scheme: "https", Host: host, Path: "/"}
		t.jar.SetCookies(u, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}})
		n++
	}
	return n
}

// Cookies returns the cookies the jar would send to rawURL.
func (t *HTTPTransport) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return t.jar.Cookies(u)
}

// Get fetches rawURL. Each attempt gets its own timeout. Network failures
// and 5xx/429 answers are retried with exponential backoff; once the retry
// budget is spent the last answer is returned as is, or a *NetworkError if
// there was none.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	var resp *Response
	attempt := 0
	op := func() error {
		resp = nil
		attempt++
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(&NetworkError{URL: rawURL, Err: err})
			}
		}
		r, err := t.do(ctx, rawURL, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			t.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
			return err
		}
		resp = r
		if retryableStatus(r.StatusCode) {
			t.logger.Debug("fetch attempt got transient status", "url", rawURL, "attempt", attempt, "status", r.StatusCode)
			return fmt.Errorf("%w %d", ErrStatus, r.StatusCode)
		}
		return nil
	}

	err := backoff.Retry(op, t.newBackOff(ctx))
	if resp != nil {
		return resp, nil
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return nil, netErr
	}
	return nil, &NetworkError{URL: rawURL, Err: err}
}

func (t *HTTPTransport) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.retryInterval
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, t.maxRetries), ctx)
}

func (t *HTTPTransport) do(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(&NetworkError{URL: rawURL, Err: err})
	}
	req.Header = t.headers.Clone()

	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := t.readBody(httpResp)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	finalURL := rawURL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}
	return &Response{
		URL:        finalURL,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       body,
	}, nil
}

// readBody decodes the Content-Encoding set by the server. A gzip payload
// served without Content-Encoding (a .xml.gz file) is returned compressed.
func (t *HTTPTransport) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, t.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > t.maxBodySize {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", t.maxBodySize)
	}
	return body, nil
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

package testutil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"
)

// MockResponse is the canned answer for one URL.
type MockResponse struct {
	// StatusCode defaults to 200.
	StatusCode int
	// Body is returned verbatim.
	Body []byte
	// Headers are copied into the response.
	Headers http.Header
	// Delay is waited before answering, honoring request cancellation.
	Delay time.Duration
	// Error simulates a network failure.
	Error error
}

// MockTransport answers requests from a URL-keyed table. Unknown URLs get
// a 404. It records how often each URL was requested.
type MockTransport struct {
	mu        sync.Mutex
	responses map[string]*MockResponse
	hits      map[string]int
	methods   map[string][]string
	cookies   map[string][]string
}

// NewMockTransport returns an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string]*MockResponse),
		hits:      make(map[string]int),
		methods:   make(map[string][]string),
		cookies:   make(map[string][]string),
	}
}

// Register sets the response for an exact URL.
func (m *MockTransport) Register(url string, resp *MockResponse) {
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.Headers == nil {
		resp.Headers = make(http.Header)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = resp
}

// RegisterBody answers url with status 200 and body.
func (m *MockTransport) RegisterBody(url, contentType string, body []byte) {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	m.Register(url, &MockResponse{Body: body, Headers: h})
}

// RegisterXML answers url with an XML document.
func (m *MockTransport) RegisterXML(url, xml string) {
	m.RegisterBody(url, "application/xml", []byte(xml))
}

// RegisterHTML answers url with an HTML page.
func (m *MockTransport) RegisterHTML(url, html string) {
	m.RegisterBody(url, "text/html; charset=utf-8", []byte(html))
}

// RegisterStatus answers url with an empty body and the given status.
func (m *MockTransport) RegisterStatus(url string, status int) {
	m.Register(url, &MockResponse{StatusCode: status})
}

// RegisterError makes requests to url fail with err.
func (m *MockTransport) RegisterError(url string, err error) {
	m.Register(url, &MockResponse{Error: err})
}

// Hits returns how many requests were made for url.
func (m *MockTransport) Hits(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[url]
}

// Methods returns the HTTP methods used for url, in request order.
func (m *MockTransport) Methods(url string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.methods[url]...)
}

// CookieHeaders returns the Cookie header sent with each request for url.
func (m *MockTransport) CookieHeaders(url string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cookies[url]...)
}

// Client returns an http.Client backed by m.
func (m *MockTransport) Client() *http.Client {
	return &http.Client{Transport: m}
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	m.mu.Lock()
	m.hits[url]++
	m.methods[url] = append(m.methods[url], req.Method)
	m.cookies[url] = append(m.cookies[url], req.Header.Get("Cookie"))
	resp, ok := m.responses[url]
	m.mu.Unlock()

	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	body := resp.Body
	if req.Method == http.MethodHead {
		body = nil
	}
	return &http.Response{
		StatusCode:    resp.StatusCode,
		Status:        http.StatusText(resp.StatusCode),
		Body:          io.NopCloser(bytes.NewReader(body)),
		Header:        resp.Headers.Clone(),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

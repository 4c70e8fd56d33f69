// Package transport is the HTTP client used for sitemap and page fetches.
//
// Transport is the narrow capability the sitemap traverser needs: fetch a
// URL with a timeout and get back the status code and body. A network
// failure is returned as *NetworkError; any HTTP answer, including 4xx and
// 5xx, is returned as a Response so callers can tell the two apart.
//
// HTTPTransport implements it with a cookie jar (so a browser session can be
// transplanted into it), standard browser-like headers, an optional rate
// limit, bounded retries with exponential backoff for transient failures and
// decoding of gzip and brotli content encodings.
package transport

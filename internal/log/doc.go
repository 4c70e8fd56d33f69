// Package log provides the slog setup used by docscout.
//
// Session bootstrap moves browser cookies into an HTTP client, and provider
// configuration may carry authorization headers. SecureHandler wraps any
// slog.Handler and masks those values before they reach the output:
//   - attributes whose key names a credential (cookie, authorization, token)
//   - values that look like bearer tokens or JWTs
//   - sensitive query parameters inside URL-valued attributes
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("session built", "cookie", "yc_session=abc") // cookie=***REDACTED***
package log

// Package linkcheck decides whether hyperlinks are broken and remembers the
// verdicts for the whole program run.
//
// A link is broken when a HEAD request to it, following redirects, fails at
// the network level, exceeds its timeout or ends with status 400 or higher.
// The Cache stores each verdict once per URL and never expires or retries
// it; concurrent requests for the same unknown URL share a single probe.
package linkcheck

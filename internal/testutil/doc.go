// Package testutil provides an in-memory http.RoundTripper for tests that
// drive docscout against fictional hosts such as example.test.
package testutil

// Package bootstrap obtains an authenticated HTTP session for a provider
// whose sitemap is guarded by an anti-bot check.
//
// The bootstrap opens a visible browser, asks a human operator to load the
// sitemap index in it and to confirm on the console, then reads the XML the
// browser received together with the browser's cookies. The cookies are
// transplanted into a fresh HTTPTransport, which can then fetch the child
// sitemaps directly.
//
// The run is a small state machine:
//
//	LaunchBrowser -> AwaitHumanAck -> ExtractContent -> BuildSession -> Done
//	                                        |
//	                                        +-> Failed
//
// The browser is closed on every exit path.
package bootstrap

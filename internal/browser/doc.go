// Package browser drives a real, visible Chrome window through chromedp.
//
// Protected providers sit behind anti-bot checks that a plain HTTP client
// cannot pass. docscout lets a human clear those checks in a browser window
// and then reads back what it needs from that window: the cookie jar, the
// rendered text and the rendered HTML. Launcher and Session are the narrow
// capabilities the session bootstrap depends on, so tests can substitute a
// fake browser.
package browser

// Package analyzer extracts structured signals from documentation pages.
//
// It decodes a fetched body, parses it with goquery and reports the page
// title, meta description, last update date, tables, code blocks by
// language, tool keyword mentions and the page's links resolved against
// the page URL. Link liveness is not checked here; see package linkcheck.
package analyzer

// Package model defines the result types shared by discovery, analysis,
// reporting and the history database.
//
//   - CrawlResult: the documentation URLs discovered for one provider
//   - PageReport: the signals extracted from one documentation page
//   - LinkSummary: link counts of a PageReport
//
// The types live in their own package so that the producing packages
// (discovery, analyzer) and the consuming ones (report, database) do not
// import each other.
package model

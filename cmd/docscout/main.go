// Package main provides the entry point for the docscout CLI.
//
// docscout discovers the documentation URLs of cloud providers from their
// sitemaps and audits documentation pages for metadata, code samples,
// tool mentions and broken links.
//
// Usage:
//
//	docscout discover [--provider name]...
//	docscout analyze [page-url]...
//	docscout history
//
// See --help for all available options.
package main

func main() {
	Execute()
}

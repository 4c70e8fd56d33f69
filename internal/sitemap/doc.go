// Package sitemap resolves a sitemap URL into the page URLs it ultimately
// lists, following sitemap indexes recursively.
//
// Traversal is depth-first and single-threaded. A VisitedSet shared across
// one top-level discovery guarantees every sitemap URL is fetched at most
// once, which also makes cyclic indexes terminate. Every failure along the
// way (network error, non-2xx status, empty body, corrupt gzip, malformed
// XML) is logged and turns that branch into an empty result; Resolve never
// returns an error.
package sitemap

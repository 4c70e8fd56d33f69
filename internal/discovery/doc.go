// Package discovery finds every documentation URL of a provider.
//
// Plain providers are read directly: robots.txt names the sitemap entry
// points (falling back to <root>/sitemap.xml) and each entry point is
// resolved with one shared visited set. Protected providers first run a
// session bootstrap; the sitemap index it extracts from the browser is
// expanded with the authenticated transport it returns.
//
// Whatever the strategy, the result is filtered to the provider's
// documentation prefix and exclude patterns, deduplicated and sorted.
package discovery

// Package config holds docscout's runtime configuration: the documentation
// providers to discover, the pages to analyze, timeouts, concurrency and
// output locations. Values come from built-in defaults, an optional
// .docscout.yaml file and CLI flags, in that order of precedence.
package config

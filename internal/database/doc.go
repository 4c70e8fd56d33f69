// Package database stores the history of docscout runs in SQLite.
//
// Every discovery run keeps its per-provider results, URL lists included,
// and every analysis run keeps its page reports. Reports are stored as JSON
// next to a few indexed columns used for listing and comparison. The link
// verdict cache is deliberately not stored: it lives for one run only.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite port.
package database

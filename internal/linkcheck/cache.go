package linkcheck

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultWorkers bounds concurrent probes in CheckAll.
const DefaultWorkers = 10

// Cache maps URLs to broken/alive verdicts for the lifetime of a run.
// It is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	verdicts map[string]bool
	flights  singleflight.Group
	workers  int
	logger   *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithWorkers sets the CheckAll pool size.
func WithWorkers(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache returns an empty Cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		verdicts: make(map[string]bool),
		workers:  DefaultWorkers,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the stored verdict for url.
func (c *Cache) Lookup(url string) (broken, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	broken, ok = c.verdicts[url]
	return broken, ok
}

// Workers returns the probe pool size.
func (c *Cache) Workers() int {
	return c.workers
}

// Len is the number of stored verdicts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}

// store records a verdict unless one exists; the first verdict wins.
func (c *Cache) store(url string, broken bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.verdicts[url]; ok {
		return existing
	}
	c.verdicts[url] = broken
	return broken
}

// GetOrCheck returns the cached verdict for url, probing it with checker on
// a miss. Concurrent misses for the same url run checker once.
func (c *Cache) GetOrCheck(ctx context.Context, url string, checker Checker) bool {
	if broken, ok := c.Lookup(url); ok {
		return broken
	}
	v, _, _ := c.flights.Do(url, func() (any, error) {
		if broken, ok := c.Lookup(url); ok {
			return broken, nil
		}
		return c.store(url, checker.IsBroken(ctx, url)), nil
	})
	broken, _ := v.(bool)
	return broken
}

// CheckAll makes sure every url has a verdict, probing unknown ones on a
// bounded pool, and returns the verdicts for urls. All probes have finished
// and been stored when it returns.
func (c *Cache) CheckAll(ctx context.Context, urls []string, checker Checker) map[string]bool {
	unknown := c.unknown(urls)
	if len(unknown) > 0 {
		c.logger.Debug("checking links", "new", len(unknown), "cached", len(urls)-len(unknown), "workers", c.workers)

		var g errgroup.Group
		g.SetLimit(c.workers)
		for _, u := range unknown {
			g.Go(func() error {
				c.GetOrCheck(ctx, u, checker)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make(map[string]bool, len(urls))
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range urls {
		out[u] = c.verdicts[u]
	}
	return out
}

func (c *Cache) unknown(urls []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, ok := c.verdicts[u]; ok {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// BrokenCount counts the unique urls whose stored verdict is broken.
func (c *Cache) BrokenCount(urls []string) int {
	return len(c.Broken(urls))
}

// Broken returns the unique urls whose stored verdict is broken, sorted.
func (c *Cache) Broken(urls []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if c.verdicts[u] {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

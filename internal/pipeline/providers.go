package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/model"
)

// ProviderDiscoverer finds the documentation URLs of one provider.
type ProviderDiscoverer interface {
	Discover(ctx context.Context, p config.Provider) (*model.CrawlResult, error)
}

// DiscoverProviders runs d for each provider in order and returns one
// result per provider. A provider that fails or panics gets a failed result
// and the loop moves on. Once ctx is cancelled the remaining providers are
// failed without being attempted. callback, when not nil, receives each
// result as it is produced.
func DiscoverProviders(
	ctx context.Context,
	d ProviderDiscoverer,
	providers []config.Provider,
	logger *slog.Logger,
	callback func(result *model.CrawlResult, index int),
) []*model.CrawlResult {
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]*model.CrawlResult, 0, len(providers))
	for i, p := range providers {
		var result *model.CrawlResult
		if err := ctx.Err(); err != nil {
			result = model.NewCrawlResult(p.Name, p.DocPrefix, string(p.Strategy))
			result.Fail(err)
		} else {
			result = discoverOne(ctx, d, p, logger)
		}
		results = append(results, result)
		if callback != nil {
			callback(result, i)
		}
	}
	return results
}

func discoverOne(ctx context.Context, d ProviderDiscoverer, p config.Provider, logger *slog.Logger) (result *model.CrawlResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("provider discovery panicked", "provider", p.Name, "panic", r)
			result = model.NewCrawlResult(p.Name, p.DocPrefix, string(p.Strategy))
			result.Fail(fmt.Errorf("discovery panicked: %v", r))
		}
	}()

	result, err := d.Discover(ctx, p)
	if result == nil {
		result = model.NewCrawlResult(p.Name, p.DocPrefix, string(p.Strategy))
		result.Fail(err)
	}
	if err != nil {
		logger.Warn("provider discovery failed", "provider", p.Name, "error", err)
	}
	return result
}

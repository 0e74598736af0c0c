package pairprovider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
)

var knownSources = map[string]struct{}{
	constant.PairProviderPostgres: {},
	constant.PairProviderRedis:    {},
	constant.PairProviderFile:     {},
	constant.PairProviderREST:     {},
}

// Router delegates to the source configured for each exchange, falling back to
// the default source.
type Router struct {
	sources       map[string]entity.PairProvider
	defaultSource string
	exchanges     map[entity.ExchangeName]string
}

func NewRouter(cfg config.PairProviderConfig, sources map[string]entity.PairProvider) (*Router, error) {
	defaultSource := strings.ToLower(strings.TrimSpace(cfg.Default))
	if defaultSource != "" {
		if _, ok := knownSources[defaultSource]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, cfg.Default)
		}
	}

	exchanges := make(map[entity.ExchangeName]string, len(cfg.Exchanges))
	for rawExchange, rawSource := range cfg.Exchanges {
		exchange, err := entity.ParseExchangeName(rawExchange)
		if err != nil {
			return nil, err
		}

		source := strings.ToLower(strings.TrimSpace(rawSource))
		if _, ok := knownSources[source]; !ok {
			return nil, fmt.Errorf("%w: %q for %s", ErrUnsupportedSource, rawSource, exchange)
		}
		exchanges[exchange] = source
	}

	return &Router{
		sources:       sources,
		defaultSource: defaultSource,
		exchanges:     exchanges,
	}, nil
}

// Source returns the source name used for exchange.
func (r *Router) Source(exchange entity.ExchangeName) string {
	if source, ok := r.exchanges[exchange]; ok {
		return source
	}

	return r.defaultSource
}

// SourcesInUse lists every source some exchange may resolve to, sorted.
func SourcesInUse(cfg config.PairProviderConfig) []string {
	seen := make(map[string]struct{}, len(cfg.Exchanges)+1)
	if source := strings.ToLower(strings.TrimSpace(cfg.Default)); source != "" {
		seen[source] = struct{}{}
	}
	for _, raw := range cfg.Exchanges {
		seen[strings.ToLower(strings.TrimSpace(raw))] = struct{}{}
	}

	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	return sources
}

func (r *Router) resolve(exchange entity.ExchangeName) (entity.PairProvider, error) {
	source := r.Source(exchange)
	if source == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, exchange)
	}

	provider, ok := r.sources[source]
	if !ok || provider == nil {
		return nil, fmt.Errorf("%w: %s source %q is not available", ErrNoSource, exchange, source)
	}

	return provider, nil
}

func (r *Router) GeneratePairs(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	provider, err := r.resolve(exchange)
	if err != nil {
		return nil, err
	}

	return provider.GeneratePairs(ctx, exchange)
}

func (r *Router) InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	provider, err := r.resolve(exchange)
	if err != nil {
		return nil, err
	}

	return provider.InstrumentInfo(ctx, exchange)
}

// Markets returns pairs and metadata of exchange. Sources listing both at
// once are asked a single time.
func (r *Router) Markets(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error) {
	provider, err := r.resolve(exchange)
	if err != nil {
		return nil, nil, err
	}

	if lister, ok := provider.(entity.MarketLister); ok {
		return lister.Markets(ctx, exchange)
	}

	pairs, err := provider.GeneratePairs(ctx, exchange)
	if err != nil {
		return nil, nil, err
	}
	info, err := provider.InstrumentInfo(ctx, exchange)
	if err != nil {
		return nil, nil, err
	}

	return pairs, info, nil
}

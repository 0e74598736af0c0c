package standards

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/sirupsen/logrus"
)

// SymbolRegistry translates trading pairs between the standard vocabulary and
// each exchange. It is populated per exchange by Warm and only grows until an
// exchange is explicitly Reset.
type SymbolRegistry struct {
	provider entity.PairProvider
	quirks   Quirks

	mu sync.RWMutex
	// [standard][exchange] = exchange symbol
	forward map[string]map[entity.ExchangeName]string
	// [exchange symbol] = standard, shared by every exchange
	backward map[string]string
	// [exchange][exchange symbol] = standard
	scoped map[entity.ExchangeName]map[string]string
}

func NewSymbolRegistry(provider entity.PairProvider, quirks Quirks) *SymbolRegistry {
	return &SymbolRegistry{
		provider: provider,
		quirks:   quirks,
		forward:  make(map[string]map[entity.ExchangeName]string),
		backward: make(map[string]string),
		scoped:   make(map[entity.ExchangeName]map[string]string),
	}
}

// Warm loads the pairs of one exchange from the provider. Calling it again
// merges the provider output, the latest value winning per key. Exempt
// exchanges are never loaded. Nothing is written when the provider fails.
func (r *SymbolRegistry) Warm(ctx context.Context, exchange entity.ExchangeName) error {
	logger := logrus.WithField("exchange", exchange)

	if r.quirks.IsExempt(exchange) {
		logger.Debug("exchange validates symbols itself, skipping warm up")
		return nil
	}

	pairs, err := r.provider.GeneratePairs(ctx, exchange)
	if err != nil {
		return fmt.Errorf("generate pairs for %s: %w", exchange, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scoped, ok := r.scoped[exchange]
	if !ok {
		scoped = make(map[string]string, len(pairs))
		r.scoped[exchange] = scoped
	}

	for standard, native := range pairs {
		if standard == "" || native == "" {
			logger.WithFields(logrus.Fields{"symbol": standard, "exchange_symbol": native}).Warn("skipping incomplete pair")
			continue
		}

		if previous, exists := r.backward[native]; exists && previous != standard {
			logger.WithFields(logrus.Fields{
				"exchange_symbol": native,
				"previous":        previous,
				"symbol":          standard,
			}).Warn("exchange symbol remapped to a different standard symbol")
		}

		perExchange, exists := r.forward[standard]
		if !exists {
			perExchange = make(map[entity.ExchangeName]string)
			r.forward[standard] = perExchange
		}
		perExchange[exchange] = native
		r.backward[native] = standard
		scoped[native] = standard
	}

	logger.WithField("pairs", len(pairs)).Info("symbol registry warmed")

	return nil
}

// Reset drops every pair loaded for exchange.
func (r *SymbolRegistry) Reset(exchange entity.ExchangeName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scoped := r.scoped[exchange]
	delete(r.scoped, exchange)

	// scoped keeps one standard per exchange symbol, so forward is walked in full
	for standard, perExchange := range r.forward {
		if _, ok := perExchange[exchange]; !ok {
			continue
		}
		delete(perExchange, exchange)
		if len(perExchange) == 0 {
			delete(r.forward, standard)
		}
	}

	for native, standard := range scoped {
		if r.backward[native] != standard {
			continue
		}
		delete(r.backward, native)
		for _, other := range r.scoped {
			if otherStandard, ok := other[native]; ok {
				r.backward[native] = otherStandard
				break
			}
		}
	}
}

// Warmed reports whether exchange has been loaded. Exempt exchanges always are.
func (r *SymbolRegistry) Warmed(exchange entity.ExchangeName) bool {
	if r.quirks.IsExempt(exchange) {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.scoped[exchange]
	return ok
}

func (r *SymbolRegistry) IsExempt(exchange entity.ExchangeName) bool {
	return r.quirks.IsExempt(exchange)
}

// ToExchange returns the exchange symbol for a standard symbol.
func (r *SymbolRegistry) ToExchange(symbol string, exchange entity.ExchangeName) (string, error) {
	if r.quirks.IsExempt(exchange) {
		return symbol, nil
	}

	r.mu.RLock()
	perExchange, known := r.forward[symbol]
	native, ok := perExchange[exchange]
	r.mu.RUnlock()

	if known {
		if !ok {
			return "", unsupportedPair(symbol, exchange)
		}
		return native, nil
	}

	if funding, ok := r.quirks.fundingSymbol(symbol, exchange); ok {
		return funding, nil
	}

	return "", unsupportedPair(symbol, exchange)
}

// ToStandard returns the standard symbol for an exchange symbol. ok is false
// when the symbol is not known yet, which callers are expected to tolerate.
func (r *SymbolRegistry) ToStandard(native string) (string, bool) {
	r.mu.RLock()
	standard, ok := r.backward[native]
	r.mu.RUnlock()
	if ok {
		return standard, true
	}

	return r.quirks.stripFunding(native)
}

// ToStandardOn is ToStandard restricted to the pairs of a single exchange.
func (r *SymbolRegistry) ToStandardOn(exchange entity.ExchangeName, native string) (string, bool) {
	if r.quirks.IsExempt(exchange) {
		return native, native != ""
	}

	r.mu.RLock()
	standard, ok := r.scoped[exchange][native]
	r.mu.RUnlock()
	if ok {
		return standard, true
	}

	if exchange != r.quirks.FundingExchange {
		return "", false
	}

	return r.quirks.stripFunding(native)
}

// Pairs returns a copy of the warmed pairs of exchange.
func (r *SymbolRegistry) Pairs(exchange entity.ExchangeName) entity.PairMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pairs := make(entity.PairMapping, len(r.scoped[exchange]))
	for standard, perExchange := range r.forward {
		if native, ok := perExchange[exchange]; ok {
			pairs[standard] = native
		}
	}

	return pairs
}

// Info queries the provider for the current pairs and instrument metadata of
// exchange. Metadata is returned untouched, or empty when there is none.
func (r *SymbolRegistry) Info(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error) {
	pairs, info, err := r.markets(ctx, exchange)
	if err != nil {
		return nil, nil, err
	}

	if pairs == nil {
		pairs = make(entity.PairMapping)
	}
	if info == nil {
		info = make(entity.InstrumentInfo)
	}

	return maps.Clone(pairs), maps.Clone(info), nil
}

func (r *SymbolRegistry) markets(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error) {
	if lister, ok := r.provider.(entity.MarketLister); ok {
		pairs, info, err := lister.Markets(ctx, exchange)
		if err != nil {
			return nil, nil, fmt.Errorf("list markets for %s: %w", exchange, err)
		}
		return pairs, info, nil
	}

	pairs, err := r.provider.GeneratePairs(ctx, exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("generate pairs for %s: %w", exchange, err)
	}

	info, err := r.provider.InstrumentInfo(ctx, exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("instrument info for %s: %w", exchange, err)
	}

	return pairs, info, nil
}

// SplitSymbol splits a standard symbol into base and quote.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(symbol, entity.SymbolSeparator)
	if !ok || base == "" || quote == "" {
		return "", "", false
	}

	return base, quote, true
}

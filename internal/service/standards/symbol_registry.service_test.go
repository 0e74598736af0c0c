package standards

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/krobus00/feed-standards/internal/entity"
)

type stubProvider struct {
	mu    sync.Mutex
	pairs map[entity.ExchangeName]entity.PairMapping
	info  map[entity.ExchangeName]entity.InstrumentInfo
	err   error
	calls int
}

func (p *stubProvider) GeneratePairs(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return maps.Clone(p.pairs[exchange]), nil
}

func (p *stubProvider) InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.info[exchange], nil
}

func newTestProvider() *stubProvider {
	return &stubProvider{
		pairs: map[entity.ExchangeName]entity.PairMapping{
			entity.ExchangeCoinbase: {
				"BTC-USD": "BTC-USD",
				"ETH-USD": "ETH-USD",
			},
			entity.ExchangeBinance: {
				"BTC-USDT": "BTCUSDT",
				"ETH-USDT": "ETHUSDT",
			},
			entity.ExchangeBitfinex: {
				"BTC-USD": "tBTCUSD",
				"ETH-USD": "tETHUSD",
			},
			entity.ExchangeKraken: {
				"BTC-USD": "XBT/USD",
			},
		},
		info: map[entity.ExchangeName]entity.InstrumentInfo{
			entity.ExchangeBinance: {
				"BTC-USDT": {"tick_size": "0.01"},
			},
		},
	}
}

func newTestRegistry(t *testing.T, provider entity.PairProvider) *SymbolRegistry {
	t.Helper()

	tables, err := LoadTables("")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}

	return NewSymbolRegistry(provider, tables.Quirks)
}

func TestSymbolRegistryRoundTrip(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	for exchange := range provider.pairs {
		if err := registry.Warm(ctx, exchange); err != nil {
			t.Fatalf("warm %s: %v", exchange, err)
		}
	}

	for exchange, pairs := range provider.pairs {
		for standard, native := range pairs {
			got, err := registry.ToExchange(standard, exchange)
			if err != nil {
				t.Fatalf("ToExchange(%s, %s): %v", standard, exchange, err)
			}
			if got != native {
				t.Fatalf("ToExchange(%s, %s): expected %s, got %s", standard, exchange, native, got)
			}

			back, ok := registry.ToStandard(native)
			if !ok || back != standard {
				t.Fatalf("ToStandard(%s): expected %s, got %s (ok=%v)", native, standard, back, ok)
			}
		}
	}
}

func TestSymbolRegistryExchangesAreIndependent(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	if err := registry.Warm(ctx, entity.ExchangeCoinbase); err != nil {
		t.Fatal(err)
	}
	if err := registry.Warm(ctx, entity.ExchangeBitfinex); err != nil {
		t.Fatal(err)
	}

	coinbase, err := registry.ToExchange("BTC-USD", entity.ExchangeCoinbase)
	if err != nil {
		t.Fatal(err)
	}
	bitfinex, err := registry.ToExchange("BTC-USD", entity.ExchangeBitfinex)
	if err != nil {
		t.Fatal(err)
	}

	if coinbase != "BTC-USD" {
		t.Fatalf("expected BTC-USD, got %s", coinbase)
	}
	if bitfinex != "tBTCUSD" {
		t.Fatalf("expected tBTCUSD, got %s", bitfinex)
	}

	_, err = registry.ToExchange("BTC-USD", entity.ExchangeKraken)
	if !errors.Is(err, ErrUnsupportedTradingPair) {
		t.Fatalf("expected ErrUnsupportedTradingPair before kraken warm up, got %v", err)
	}
}

func TestSymbolRegistryWarmIsIdempotent(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	if err := registry.Warm(ctx, entity.ExchangeBinance); err != nil {
		t.Fatal(err)
	}
	forward := cloneForward(registry.forward)
	backward := maps.Clone(registry.backward)

	if err := registry.Warm(ctx, entity.ExchangeBinance); err != nil {
		t.Fatal(err)
	}

	if !equalForward(forward, registry.forward) {
		t.Fatalf("forward map changed after second warm up: %v -> %v", forward, registry.forward)
	}
	if !maps.Equal(backward, registry.backward) {
		t.Fatalf("backward map changed after second warm up: %v -> %v", backward, registry.backward)
	}
}

func TestSymbolRegistryWarmMergesLatestValue(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	if err := registry.Warm(ctx, entity.ExchangeBinance); err != nil {
		t.Fatal(err)
	}

	provider.pairs[entity.ExchangeBinance] = entity.PairMapping{
		"BTC-USDT": "BTCUSDT",
		"SOL-USDT": "SOLUSDT",
	}
	if err := registry.Warm(ctx, entity.ExchangeBinance); err != nil {
		t.Fatal(err)
	}

	for _, symbol := range []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"} {
		if _, err := registry.ToExchange(symbol, entity.ExchangeBinance); err != nil {
			t.Fatalf("expected %s to stay mapped: %v", symbol, err)
		}
	}
}

func TestSymbolRegistryUnsupportedPair(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	if err := registry.Warm(ctx, entity.ExchangeBinance); err != nil {
		t.Fatal(err)
	}
	if err := registry.Warm(ctx, entity.ExchangeCoinbase); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		symbol   string
		exchange entity.ExchangeName
	}{
		{name: "known symbol missing on exchange", symbol: "BTC-USD", exchange: entity.ExchangeBinance},
		{name: "unknown symbol", symbol: "DOGE-EUR", exchange: entity.ExchangeCoinbase},
		{name: "bare currency outside funding exchange", symbol: "BTC", exchange: entity.ExchangeCoinbase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.ToExchange(tt.symbol, tt.exchange)
			if !errors.Is(err, ErrUnsupportedTradingPair) {
				t.Fatalf("expected ErrUnsupportedTradingPair, got %v", err)
			}
		})
	}
}

func TestSymbolRegistryFundingSymbols(t *testing.T) {
	registry := newTestRegistry(t, newTestProvider())

	got, err := registry.ToExchange("BTC", entity.ExchangeBitfinex)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fBTC" {
		t.Fatalf("expected fBTC, got %s", got)
	}

	standard, ok := registry.ToStandard("fBTC")
	if !ok || standard != "BTC" {
		t.Fatalf("expected BTC, got %s (ok=%v)", standard, ok)
	}

	if _, err := registry.ToExchange("BTC-EUR", entity.ExchangeBitfinex); !errors.Is(err, ErrUnsupportedTradingPair) {
		t.Fatalf("expected ErrUnsupportedTradingPair for unknown pair, got %v", err)
	}
}

func TestSymbolRegistryToStandardUnknown(t *testing.T) {
	registry := newTestRegistry(t, newTestProvider())

	for _, native := range []string{"XBTUSD", "", "f"} {
		if standard, ok := registry.ToStandard(native); ok {
			t.Fatalf("ToStandard(%q): expected no result, got %s", native, standard)
		}
	}
}

func TestSymbolRegistryExemptExchanges(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	for _, exchange := range []entity.ExchangeName{entity.ExchangeBitmex, entity.ExchangeDeribit, entity.ExchangeKrakenFutures} {
		if err := registry.Warm(ctx, exchange); err != nil {
			t.Fatalf("warm %s: %v", exchange, err)
		}

		got, err := registry.ToExchange("XBTUSD", exchange)
		if err != nil {
			t.Fatalf("ToExchange on %s: %v", exchange, err)
		}
		if got != "XBTUSD" {
			t.Fatalf("expected pass-through on %s, got %s", exchange, got)
		}
		if !registry.Warmed(exchange) {
			t.Fatalf("expected %s to report warmed", exchange)
		}
	}

	if provider.calls != 0 {
		t.Fatalf("expected provider not to be called for exempt exchanges, got %d calls", provider.calls)
	}
}

func TestSymbolRegistryWarmFailureLeavesRegistryUntouched(t *testing.T) {
	provider := newTestProvider()
	provider.err = errors.New("provider down")
	registry := newTestRegistry(t, provider)

	err := registry.Warm(context.Background(), entity.ExchangeBinance)
	if err == nil {
		t.Fatal("expected warm up to fail")
	}
	if registry.Warmed(entity.ExchangeBinance) {
		t.Fatal("expected binance not to be warmed")
	}
	if len(registry.forward) != 0 || len(registry.backward) != 0 {
		t.Fatalf("expected empty registry, got forward=%v backward=%v", registry.forward, registry.backward)
	}
}

func TestSymbolRegistryReset(t *testing.T) {
	provider := newTestProvider()
	provider.pairs[entity.ExchangeGemini] = entity.PairMapping{"BTC-USD": "BTC-USD"}
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	for _, exchange := range []entity.ExchangeName{entity.ExchangeCoinbase, entity.ExchangeGemini, entity.ExchangeBitfinex} {
		if err := registry.Warm(ctx, exchange); err != nil {
			t.Fatal(err)
		}
	}

	registry.Reset(entity.ExchangeCoinbase)

	if registry.Warmed(entity.ExchangeCoinbase) {
		t.Fatal("expected coinbase to be reset")
	}
	if _, err := registry.ToExchange("ETH-USD", entity.ExchangeCoinbase); !errors.Is(err, ErrUnsupportedTradingPair) {
		t.Fatalf("expected ErrUnsupportedTradingPair after reset, got %v", err)
	}
	if got, err := registry.ToExchange("BTC-USD", entity.ExchangeBitfinex); err != nil || got != "tBTCUSD" {
		t.Fatalf("expected bitfinex untouched, got %s, %v", got, err)
	}
	if standard, ok := registry.ToStandard("BTC-USD"); !ok || standard != "BTC-USD" {
		t.Fatalf("expected gemini to keep BTC-USD reachable, got %s (ok=%v)", standard, ok)
	}
	if _, ok := registry.ToStandardOn(entity.ExchangeCoinbase, "ETH-USD"); ok {
		t.Fatal("expected coinbase scoped lookup to miss after reset")
	}
}

func TestSymbolRegistryResetSharedExchangeSymbol(t *testing.T) {
	provider := newTestProvider()
	provider.pairs[entity.ExchangeKraken] = entity.PairMapping{
		"BTC-USD": "XBT/USD",
		"XBT-USD": "XBT/USD",
	}
	registry := newTestRegistry(t, provider)

	if err := registry.Warm(context.Background(), entity.ExchangeKraken); err != nil {
		t.Fatal(err)
	}
	if pairs := registry.Pairs(entity.ExchangeKraken); len(pairs) != 2 {
		t.Fatalf("expected 2 pairs before reset, got %v", pairs)
	}

	registry.Reset(entity.ExchangeKraken)

	for _, symbol := range []string{"BTC-USD", "XBT-USD"} {
		if _, err := registry.ToExchange(symbol, entity.ExchangeKraken); !errors.Is(err, ErrUnsupportedTradingPair) {
			t.Fatalf("expected ErrUnsupportedTradingPair for %s after reset, got %v", symbol, err)
		}
	}
	if pairs := registry.Pairs(entity.ExchangeKraken); len(pairs) != 0 {
		t.Fatalf("expected no pairs after reset, got %v", pairs)
	}
	if _, ok := registry.ToStandard("XBT/USD"); ok {
		t.Fatal("expected XBT/USD to be unknown after reset")
	}
}

func TestSymbolRegistryPairsAndInfo(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	if err := registry.Warm(ctx, entity.ExchangeBinance); err != nil {
		t.Fatal(err)
	}

	if got := registry.Pairs(entity.ExchangeBinance); !maps.Equal(got, provider.pairs[entity.ExchangeBinance]) {
		t.Fatalf("unexpected pairs: %v", got)
	}

	pairs, info, err := registry.Info(ctx, entity.ExchangeBinance)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if info["BTC-USDT"]["tick_size"] != "0.01" {
		t.Fatalf("expected metadata to pass through, got %v", info)
	}

	_, info, err = registry.Info(ctx, entity.ExchangeCoinbase)
	if err != nil {
		t.Fatal(err)
	}
	if info == nil || len(info) != 0 {
		t.Fatalf("expected empty metadata, got %v", info)
	}
}

func TestSymbolRegistryConcurrentWarmAndRead(t *testing.T) {
	provider := newTestProvider()
	registry := newTestRegistry(t, provider)
	ctx := context.Background()

	var wg sync.WaitGroup
	for exchange := range provider.pairs {
		wg.Add(2)
		go func(exchange entity.ExchangeName) {
			defer wg.Done()
			if err := registry.Warm(ctx, exchange); err != nil {
				t.Errorf("warm %s: %v", exchange, err)
			}
		}(exchange)
		go func(exchange entity.ExchangeName) {
			defer wg.Done()
			_, _ = registry.ToExchange("BTC-USD", exchange)
			_, _ = registry.ToStandard("BTCUSDT")
		}(exchange)
	}
	wg.Wait()

	if got, err := registry.ToExchange("BTC-USDT", entity.ExchangeBinance); err != nil || got != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %s, %v", got, err)
	}
}

func TestSplitSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		base   string
		quote  string
		ok     bool
	}{
		{symbol: "BTC-USD", base: "BTC", quote: "USD", ok: true},
		{symbol: "BTC", ok: false},
		{symbol: "-USD", ok: false},
		{symbol: "BTC-", ok: false},
	}

	for _, tt := range tests {
		base, quote, ok := SplitSymbol(tt.symbol)
		if base != tt.base || quote != tt.quote || ok != tt.ok {
			t.Fatalf("SplitSymbol(%q): expected (%q, %q, %v), got (%q, %q, %v)", tt.symbol, tt.base, tt.quote, tt.ok, base, quote, ok)
		}
	}
}

func cloneForward(in map[string]map[entity.ExchangeName]string) map[string]map[entity.ExchangeName]string {
	out := make(map[string]map[entity.ExchangeName]string, len(in))
	for k, v := range in {
		out[k] = maps.Clone(v)
	}
	return out
}

func equalForward(a, b map[string]map[entity.ExchangeName]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if !maps.Equal(v, b[k]) {
			return false
		}
	}
	return true
}

type listingProvider struct {
	*stubProvider
	listed int
}

func (p *listingProvider) Markets(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error) {
	p.listed++
	return maps.Clone(p.pairs[exchange]), p.info[exchange], nil
}

func TestSymbolRegistryInfoUsesSingleListing(t *testing.T) {
	provider := &listingProvider{stubProvider: newTestProvider()}
	registry := newTestRegistry(t, provider)

	pairs, info, err := registry.Info(context.Background(), entity.ExchangeBinance)
	if err != nil {
		t.Fatal(err)
	}
	if provider.listed != 1 {
		t.Fatalf("expected one listing call, got %d", provider.listed)
	}
	if provider.calls != 0 {
		t.Fatalf("expected no separate pair lookups, got %d", provider.calls)
	}
	if pairs["BTC-USDT"] != "BTCUSDT" || info["BTC-USDT"]["tick_size"] != "0.01" {
		t.Fatalf("unexpected info result: %v %v", pairs, info)
	}
}

package feedprobe

import (
	"context"
	"maps"
	"testing"

	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/standards"
)

type stubProvider struct {
	pairs map[entity.ExchangeName]entity.PairMapping
}

func (p *stubProvider) GeneratePairs(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	return maps.Clone(p.pairs[exchange]), nil
}

func (p *stubProvider) InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	return nil, nil
}

func newTestStandards(t *testing.T) *standards.Standards {
	t.Helper()

	tables, err := standards.LoadTables("")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}

	provider := &stubProvider{
		pairs: map[entity.ExchangeName]entity.PairMapping{
			entity.ExchangeBinance:  {"BTC-USDT": "BTCUSDT", "ETH-USDT": "ETHUSDT"},
			entity.ExchangeCoinbase: {"BTC-USD": "BTC-USD", "ETH-USD": "ETH-USD"},
			entity.ExchangeKraken:   {"BTC-USD": "XBT/USD"},
			entity.ExchangeBitfinex: {"BTC-USD": "tBTCUSD"},
			entity.ExchangeOKEx:     {"BTC-USDT": "BTC-USDT", "BTC-USD-SWAP": "BTC-USD-SWAP"},
		},
	}

	std := standards.New(tables, provider)
	for exchange := range provider.pairs {
		if err := std.Registry.Warm(context.Background(), exchange); err != nil {
			t.Fatalf("warm %s: %v", exchange, err)
		}
	}

	return std
}

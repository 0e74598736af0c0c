package pairprovider

import (
	"context"
	"errors"
	"testing"

	"github.com/krobus00/feed-standards/internal/entity"
)

type fakeSymbolMappingRepo struct {
	pairs map[entity.ExchangeName]entity.PairMapping
	err   error
}

func (r fakeSymbolMappingRepo) GetByExchange(_ context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	return r.pairs[exchange], r.err
}

type fakeInstrumentInfoRepo struct {
	info map[entity.ExchangeName]entity.InstrumentInfo
}

func (r fakeInstrumentInfoRepo) GetByExchange(_ context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	return r.info[exchange], nil
}

func TestPostgresProvider(t *testing.T) {
	provider := NewPostgresProvider(
		fakeSymbolMappingRepo{pairs: map[entity.ExchangeName]entity.PairMapping{
			entity.ExchangeGemini: {"BTC-USD": "BTCUSD"},
		}},
		fakeInstrumentInfoRepo{info: map[entity.ExchangeName]entity.InstrumentInfo{
			entity.ExchangeGemini: {"BTC-USD": {"tick_size": "0.01"}},
		}},
	)

	pairs, err := provider.GeneratePairs(context.Background(), entity.ExchangeGemini)
	if err != nil {
		t.Fatal(err)
	}
	if pairs["BTC-USD"] != "BTCUSD" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}

	info, err := provider.InstrumentInfo(context.Background(), entity.ExchangeGemini)
	if err != nil {
		t.Fatal(err)
	}
	if info["BTC-USD"]["tick_size"] != "0.01" {
		t.Fatalf("unexpected info: %v", info)
	}
}

func TestPostgresProviderError(t *testing.T) {
	errDatabase := errors.New("connection refused")
	provider := NewPostgresProvider(fakeSymbolMappingRepo{err: errDatabase}, fakeInstrumentInfoRepo{})

	if _, err := provider.GeneratePairs(context.Background(), entity.ExchangeGemini); !errors.Is(err, errDatabase) {
		t.Fatalf("expected database error, got %v", err)
	}
}

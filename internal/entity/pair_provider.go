package entity

import "context"

// PairProvider supplies the standard -> exchange symbol pairs and instrument
// metadata known for one exchange.
type PairProvider interface {
	GeneratePairs(ctx context.Context, exchange ExchangeName) (PairMapping, error)
	InstrumentInfo(ctx context.Context, exchange ExchangeName) (InstrumentInfo, error)
}

// MarketLister is implemented by providers that read pairs and instrument
// metadata from one snapshot.
type MarketLister interface {
	Markets(ctx context.Context, exchange ExchangeName) (PairMapping, InstrumentInfo, error)
}

package pairprovider

import (
	"context"

	"github.com/krobus00/feed-standards/internal/entity"
)

type symbolMappingReader interface {
	GetByExchange(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error)
}

type instrumentInfoReader interface {
	GetByExchange(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error)
}

// PostgresProvider serves the pairs persisted by pair-sync.
type PostgresProvider struct {
	symbolMappingRepo  symbolMappingReader
	instrumentInfoRepo instrumentInfoReader
}

func NewPostgresProvider(symbolMappingRepo symbolMappingReader, instrumentInfoRepo instrumentInfoReader) *PostgresProvider {
	return &PostgresProvider{
		symbolMappingRepo:  symbolMappingRepo,
		instrumentInfoRepo: instrumentInfoRepo,
	}
}

func (p *PostgresProvider) GeneratePairs(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	return p.symbolMappingRepo.GetByExchange(ctx, exchange)
}

func (p *PostgresProvider) InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	return p.instrumentInfoRepo.GetByExchange(ctx, exchange)
}

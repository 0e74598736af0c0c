package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/feed-standards/internal/entity"
)

var symbolMappingColumns = []string{
	"id",
	"exchange",
	"symbol",
	"exchange_symbol",
	"source",
	"created_at",
	"updated_at",
}

type SymbolMappingRepository struct {
	db *sqlx.DB
}

func NewSymbolMappingRepository(db *sqlx.DB) *SymbolMappingRepository {
	return &SymbolMappingRepository{db: db}
}

func (r *SymbolMappingRepository) GetAll(ctx context.Context) (map[entity.ExchangeName]entity.PairMapping, error) {
	query, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(symbolMappingColumns...).
		From(entity.SymbolMapping{}.TableName()).
		OrderBy("updated_at asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var mappings []entity.SymbolMapping
	err = r.db.SelectContext(ctx, &mappings, query, args...)
	if err != nil {
		return nil, err
	}

	exchangeSymbolMapping := make(map[entity.ExchangeName]entity.PairMapping)
	for _, mapping := range mappings {
		exchange := entity.ExchangeName(mapping.Exchange)
		if _, ok := exchangeSymbolMapping[exchange]; !ok {
			exchangeSymbolMapping[exchange] = make(entity.PairMapping)
		}
		exchangeSymbolMapping[exchange][mapping.Symbol] = mapping.ExchangeSymbol
	}

	return exchangeSymbolMapping, nil
}

// GetByExchange returns the pairs of one exchange. Rows are read oldest first
// so the most recently updated mapping wins on duplicates.
func (r *SymbolMappingRepository) GetByExchange(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	query, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(symbolMappingColumns...).
		From(entity.SymbolMapping{}.TableName()).
		Where(sq.Eq{"exchange": exchange.String()}).
		OrderBy("updated_at asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var mappings []entity.SymbolMapping
	err = r.db.SelectContext(ctx, &mappings, query, args...)
	if err != nil {
		return nil, err
	}

	pairs := make(entity.PairMapping, len(mappings))
	for _, mapping := range mappings {
		pairs[mapping.Symbol] = mapping.ExchangeSymbol
	}

	return pairs, nil
}

func (r *SymbolMappingRepository) Upsert(ctx context.Context, data []entity.SymbolMapping) error {
	if len(data) == 0 {
		return nil
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(entity.SymbolMapping{}.TableName()).
		Columns(symbolMappingColumns...)

	for _, mapping := range data {
		queryBuilder = queryBuilder.Values(
			mapping.ID,
			mapping.Exchange,
			mapping.Symbol,
			mapping.ExchangeSymbol,
			mapping.Source,
			mapping.CreatedAt,
			mapping.UpdatedAt,
		)
	}

	queryBuilder = queryBuilder.Suffix(`ON CONFLICT (exchange, symbol)
DO UPDATE SET
	exchange_symbol = EXCLUDED.exchange_symbol,
	source = EXCLUDED.source,
	updated_at = EXCLUDED.updated_at`)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *SymbolMappingRepository) DeleteByExchange(ctx context.Context, exchange entity.ExchangeName) error {
	query, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Delete(entity.SymbolMapping{}.TableName()).
		Where(sq.Eq{"exchange": exchange.String()}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

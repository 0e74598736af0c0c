package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/feed-standards/internal/entity"
)

var instrumentInfoColumns = []string{
	"id",
	"exchange",
	"symbol",
	"metadata",
	"created_at",
	"updated_at",
}

type InstrumentInfoRepository struct {
	db *sqlx.DB
}

func NewInstrumentInfoRepository(db *sqlx.DB) *InstrumentInfoRepository {
	return &InstrumentInfoRepository{db: db}
}

func (r *InstrumentInfoRepository) GetByExchange(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	query, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(instrumentInfoColumns...).
		From(entity.InstrumentInfoRecord{}.TableName()).
		Where(sq.Eq{"exchange": exchange.String()}).
		OrderBy("updated_at asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var records []entity.InstrumentInfoRecord
	err = r.db.SelectContext(ctx, &records, query, args...)
	if err != nil {
		return nil, err
	}

	info := make(entity.InstrumentInfo, len(records))
	for _, record := range records {
		metadata := make(map[string]any)
		if len(record.Metadata) > 0 {
			if err := json.Unmarshal(record.Metadata, &metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %s on %s: %w", record.Symbol, record.Exchange, err)
			}
		}
		info[record.Symbol] = metadata
	}

	return info, nil
}

func (r *InstrumentInfoRepository) Upsert(ctx context.Context, data []entity.InstrumentInfoRecord) error {
	if len(data) == 0 {
		return nil
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(entity.InstrumentInfoRecord{}.TableName()).
		Columns(instrumentInfoColumns...)

	for _, record := range data {
		queryBuilder = queryBuilder.Values(
			record.ID,
			record.Exchange,
			record.Symbol,
			string(record.Metadata),
			record.CreatedAt,
			record.UpdatedAt,
		)
	}

	queryBuilder = queryBuilder.Suffix(`ON CONFLICT (exchange, symbol)
DO UPDATE SET
	metadata = EXCLUDED.metadata,
	updated_at = EXCLUDED.updated_at`)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

package entity

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

type SymbolMapping struct {
	ID             string      `db:"id" json:"id"`
	Exchange       string      `db:"exchange" json:"exchange"`
	Symbol         string      `db:"symbol" json:"symbol"`
	ExchangeSymbol string      `db:"exchange_symbol" json:"exchange_symbol"`
	Source         null.String `db:"source" json:"source"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

func (m SymbolMapping) TableName() string {
	return "symbol_mappings"
}

// [standard symbol] = exchange symbol
type PairMapping map[string]string

// InstrumentInfo is keyed by standard symbol. The metadata values are
// exchange-defined (contract size, tick size, ...) and never interpreted here.
type InstrumentInfo map[string]map[string]any

type InstrumentInfoRecord struct {
	ID        string          `db:"id" json:"id"`
	Exchange  string          `db:"exchange" json:"exchange"`
	Symbol    string          `db:"symbol" json:"symbol"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

func (r InstrumentInfoRecord) TableName() string {
	return "instrument_infos"
}

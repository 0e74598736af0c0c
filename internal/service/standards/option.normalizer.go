package standards

import (
	"github.com/krobus00/feed-standards/internal/entity"
)

type OptionNormalizer struct {
	table OptionTable
}

func NewOptionNormalizer(table OptionTable) *OptionNormalizer {
	return &OptionNormalizer{table: table}
}

// Normalize returns the exchange flag for a standard order option. Unknown
// options, missing exchange entries and explicit gaps share one error kind.
func (n *OptionNormalizer) Normalize(exchange entity.ExchangeName, option entity.TradingOption) (NativeValue, error) {
	if !n.table.Has(option) {
		return NativeValue{}, unsupportedOption(option, exchange)
	}

	result := n.table.Lookup(option, exchange)
	if result.State != LookupFound {
		return NativeValue{}, unsupportedOption(option, exchange)
	}

	return result.Value.clone(), nil
}

func (n *OptionNormalizer) Lookup(exchange entity.ExchangeName, option entity.TradingOption) Lookup {
	return n.table.Lookup(option, exchange)
}

func (n *OptionNormalizer) Exchanges(option entity.TradingOption) []entity.ExchangeName {
	return n.table.entries.exchanges(option)
}

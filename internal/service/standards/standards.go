// Package standards translates between the standard feed vocabulary and the
// naming each exchange uses for trading pairs, channels, order options and
// timestamps.
package standards

import (
	"github.com/krobus00/feed-standards/internal/entity"
)

// Standards bundles the four translators built from one set of tables.
type Standards struct {
	Registry   *SymbolRegistry
	Channels   *ChannelTranslator
	Timestamps *TimestampNormalizer
	Options    *OptionNormalizer
}

func New(tables *Tables, provider entity.PairProvider) *Standards {
	registry := NewSymbolRegistry(provider, tables.Quirks)

	return &Standards{
		Registry:   registry,
		Channels:   NewChannelTranslator(tables.Channels, registry, tables.Quirks),
		Timestamps: NewTimestampNormalizer(tables.Timestamps),
		Options:    NewOptionNormalizer(tables.Options),
	}
}

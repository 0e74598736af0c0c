package standards

import (
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/sirupsen/logrus"
)

type ChannelTranslator struct {
	table    ChannelTable
	registry *SymbolRegistry
	quirks   Quirks
}

func NewChannelTranslator(table ChannelTable, registry *SymbolRegistry, quirks Quirks) *ChannelTranslator {
	return &ChannelTranslator{
		table:    table,
		registry: registry,
		quirks:   quirks,
	}
}

// Translate returns the native subscription channel for a standard channel.
// On exchanges that accept trading pairs as channels, a channel missing from
// the table is treated as a standard symbol and translated through the
// registry. silent only suppresses the error log.
func (t *ChannelTranslator) Translate(channel entity.Channel, exchange entity.ExchangeName, silent bool) (NativeValue, error) {
	if t.quirks.AcceptsSymbolChannel(exchange) && !t.table.Has(channel) {
		native, err := t.registry.ToExchange(string(channel), exchange)
		if err != nil {
			return NativeValue{}, err
		}
		return StringValue(native), nil
	}

	result := t.table.Lookup(channel, exchange)
	if result.State == LookupFound {
		return result.Value.clone(), nil
	}

	err := &FeedError{
		Channel:  channel,
		Exchange: exchange,
		Explicit: result.State == LookupUnsupported,
	}
	if !silent {
		logrus.WithFields(logrus.Fields{
			"exchange": exchange,
			"channel":  channel,
			"state":    result.State.String(),
		}).Errorf("error: %v", err)
	}

	return NativeValue{}, err
}

func (t *ChannelTranslator) Lookup(channel entity.Channel, exchange entity.ExchangeName) Lookup {
	return t.table.Lookup(channel, exchange)
}

// Exchanges lists the exchanges with a usable mapping for channel.
func (t *ChannelTranslator) Exchanges(channel entity.Channel) []entity.ExchangeName {
	return t.table.entries.exchanges(channel)
}

func (t *ChannelTranslator) Channels() []entity.Channel {
	return t.table.Channels()
}

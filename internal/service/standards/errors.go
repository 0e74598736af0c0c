package standards

import (
	"errors"
	"fmt"

	"github.com/krobus00/feed-standards/internal/entity"
)

var (
	ErrUnsupportedTradingPair   = errors.New("unsupported trading pair")
	ErrUnsupportedDataFeed      = errors.New("unsupported data feed")
	ErrUnsupportedTradingOption = errors.New("unsupported trading option")
	ErrUnknownExchange          = errors.New("unknown exchange")
	ErrInvalidTimestamp         = errors.New("invalid timestamp")
)

// FeedError reports a channel with no usable mapping. Explicit is true when
// the table marks the channel unsupported rather than leaving it undefined.
type FeedError struct {
	Channel  entity.Channel
	Exchange entity.ExchangeName
	Explicit bool
}

func (e *FeedError) Error() string {
	if e.Explicit {
		return fmt.Sprintf("%s is not currently supported on %s", e.Channel, e.Exchange)
	}

	return fmt.Sprintf("%s is not defined for %s", e.Channel, e.Exchange)
}

func (e *FeedError) Unwrap() error {
	return ErrUnsupportedDataFeed
}

func unsupportedPair(symbol string, exchange entity.ExchangeName) error {
	return fmt.Errorf("%w: %s is not supported on %s", ErrUnsupportedTradingPair, symbol, exchange)
}

func unsupportedOption(option entity.TradingOption, exchange entity.ExchangeName) error {
	return fmt.Errorf("%w: %s is not supported on %s", ErrUnsupportedTradingOption, option, exchange)
}

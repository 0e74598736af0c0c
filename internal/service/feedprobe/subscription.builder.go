// Package feedprobe builds exchange subscription messages from the standard
// vocabulary and reads the resulting public trade stream back into it.
package feedprobe

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/standards"
)

var (
	ErrUnsupportedExchange = errors.New("feed probe is not supported on exchange")
	ErrEmptySubscription   = errors.New("at least one channel and one symbol are required")
)

var defaultEndpoints = map[entity.ExchangeName]string{
	entity.ExchangeBinance:  "wss://stream.binance.com:9443/ws",
	entity.ExchangeCoinbase: "wss://ws-feed.exchange.coinbase.com",
	entity.ExchangeKraken:   "wss://ws.kraken.com",
	entity.ExchangeBitfinex: "wss://api-pub.bitfinex.com/ws/2",
	entity.ExchangeOKEx:     "wss://real.okex.com:8443/ws/v3",
}

// Subscription is everything needed to open one exchange stream.
type Subscription struct {
	Exchange entity.ExchangeName
	URL      string
	Messages [][]byte
}

type feed struct {
	channel entity.Channel
	native  standards.NativeValue
	symbols []string
}

type encodeFunc func(feeds []feed) ([]any, error)

var encoders = map[entity.ExchangeName]encodeFunc{
	entity.ExchangeBinance:  encodeBinance,
	entity.ExchangeCoinbase: encodeCoinbase,
	entity.ExchangeKraken:   encodeKraken,
	entity.ExchangeBitfinex: encodeBitfinex,
	entity.ExchangeOKEx:     encodeOKEx,
}

type SubscriptionBuilder struct {
	channels  *standards.ChannelTranslator
	registry  *standards.SymbolRegistry
	endpoints map[entity.ExchangeName]string
}

// NewSubscriptionBuilder takes optional websocket url overrides keyed by
// exchange name in any casing.
func NewSubscriptionBuilder(std *standards.Standards, endpoints map[string]string) (*SubscriptionBuilder, error) {
	resolved := make(map[entity.ExchangeName]string, len(defaultEndpoints))
	for exchange, url := range defaultEndpoints {
		resolved[exchange] = url
	}

	for raw, url := range endpoints {
		exchange, err := entity.ParseExchangeName(raw)
		if err != nil {
			return nil, fmt.Errorf("feed probe endpoint: %w", err)
		}
		if _, ok := encoders[exchange]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
		}
		resolved[exchange] = url
	}

	return &SubscriptionBuilder{
		channels:  std.Channels,
		registry:  std.Registry,
		endpoints: resolved,
	}, nil
}

func (b *SubscriptionBuilder) Exchanges() []entity.ExchangeName {
	names := make([]entity.ExchangeName, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Build translates channels and standard symbols for exchange and encodes the
// subscribe messages in the order they must be sent.
func (b *SubscriptionBuilder) Build(exchange entity.ExchangeName, channels []entity.Channel, symbols []string) (Subscription, error) {
	encode, ok := encoders[exchange]
	if !ok {
		return Subscription{}, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}
	if len(channels) == 0 || len(symbols) == 0 {
		return Subscription{}, ErrEmptySubscription
	}

	natives := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		native, err := b.registry.ToExchange(symbol, exchange)
		if err != nil {
			return Subscription{}, err
		}
		natives = append(natives, native)
	}

	feeds := make([]feed, 0, len(channels))
	for _, channel := range channels {
		native, err := b.channels.Translate(channel, exchange, false)
		if err != nil {
			return Subscription{}, err
		}
		feeds = append(feeds, feed{channel: channel, native: native, symbols: natives})
	}

	messages, err := encode(feeds)
	if err != nil {
		return Subscription{}, err
	}

	sub := Subscription{
		Exchange: exchange,
		URL:      b.endpoints[exchange],
		Messages: make([][]byte, 0, len(messages)),
	}
	for _, message := range messages {
		raw, err := json.Marshal(message)
		if err != nil {
			return Subscription{}, fmt.Errorf("encode %s subscription: %w", exchange, err)
		}
		sub.Messages = append(sub.Messages, raw)
	}

	return sub, nil
}

func encodeBinance(feeds []feed) ([]any, error) {
	params := make([]string, 0)
	for _, f := range feeds {
		for _, symbol := range f.symbols {
			params = append(params, strings.ToLower(symbol)+"@"+f.native.String())
		}
	}

	return []any{map[string]any{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}}, nil
}

func encodeCoinbase(feeds []feed) ([]any, error) {
	channels := make([]string, 0, len(feeds))
	for _, f := range feeds {
		channels = append(channels, f.native.String())
	}

	return []any{map[string]any{
		"type":        "subscribe",
		"product_ids": feeds[0].symbols,
		"channels":    channels,
	}}, nil
}

func encodeKraken(feeds []feed) ([]any, error) {
	messages := make([]any, 0, len(feeds))
	for _, f := range feeds {
		messages = append(messages, map[string]any{
			"event":        "subscribe",
			"pair":         f.symbols,
			"subscription": map[string]any{"name": f.native.String()},
		})
	}

	return messages, nil
}

// Bitfinex book channels carry their parameters in the native name,
// e.g. book-P0-F0-100 is precision P0, frequency F0, length 100.
func encodeBitfinex(feeds []feed) ([]any, error) {
	messages := make([]any, 0)
	for _, f := range feeds {
		parts := strings.Split(f.native.String(), "-")
		for _, symbol := range f.symbols {
			message := map[string]any{
				"event":   "subscribe",
				"channel": parts[0],
				"symbol":  symbol,
			}
			if len(parts) == 4 {
				message["prec"] = parts[1]
				message["freq"] = parts[2]
				message["len"] = parts[3]
			} else if len(parts) != 1 {
				return nil, fmt.Errorf("unexpected bitfinex channel %q", f.native.String())
			}
			messages = append(messages, message)
		}
	}

	return messages, nil
}

func encodeOKEx(feeds []feed) ([]any, error) {
	args := make([]string, 0)
	for _, f := range feeds {
		for _, symbol := range f.symbols {
			args = append(args, f.native.Format(okexInstrumentType(symbol))+":"+symbol)
		}
	}

	return []any{map[string]any{
		"op":   "subscribe",
		"args": args,
	}}, nil
}

// okexInstrumentType classifies BTC-USDT as spot, BTC-USD-SWAP as swap and
// dated contracts such as BTC-USD-210625 as futures.
func okexInstrumentType(symbol string) string {
	parts := strings.Split(symbol, "-")
	switch {
	case len(parts) == 3 && parts[2] == "SWAP":
		return "swap"
	case len(parts) == 3:
		return "futures"
	default:
		return "spot"
	}
}

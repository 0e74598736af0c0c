package standards

import (
	"context"
	"errors"
	"testing"

	"github.com/krobus00/feed-standards/internal/entity"
)

func newTestStandards(t *testing.T) (*Standards, *stubProvider) {
	t.Helper()

	tables, err := LoadTables("")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}

	provider := newTestProvider()
	provider.pairs[entity.ExchangePoloniex] = entity.PairMapping{"BTC-USDT": "USDT_BTC"}

	return New(tables, provider), provider
}

func TestChannelTranslatorTranslate(t *testing.T) {
	s, _ := newTestStandards(t)

	tests := []struct {
		name     string
		channel  entity.Channel
		exchange entity.ExchangeName
		expected NativeValue
	}{
		{name: "coinbase trades", channel: entity.ChannelTrades, exchange: entity.ExchangeCoinbase, expected: StringValue("matches")},
		{name: "coinbase l2", channel: entity.ChannelL2Book, exchange: entity.ExchangeCoinbase, expected: StringValue("level2")},
		{name: "binance l2", channel: entity.ChannelL2Book, exchange: entity.ExchangeBinance, expected: StringValue("depth@100ms")},
		{name: "bitfinex l3", channel: entity.ChannelL3Book, exchange: entity.ExchangeBitfinex, expected: StringValue("book-R0-F0-100")},
		{name: "poloniex ticker code", channel: entity.ChannelTicker, exchange: entity.ExchangePoloniex, expected: CodeValue(1002)},
		{name: "poloniex volume code", channel: entity.ChannelVolume, exchange: entity.ExchangePoloniex, expected: CodeValue(1003)},
		{name: "poloniex standard name", channel: entity.ChannelL2Book, exchange: entity.ExchangePoloniex, expected: StringValue("l2_book")},
		{name: "okex template", channel: entity.ChannelTrades, exchange: entity.ExchangeOKEx, expected: StringValue("{}/trade")},
		{name: "bybit futures index", channel: entity.ChannelFuturesIndex, exchange: entity.ExchangeBybit, expected: StringValue("instrument_info.100ms")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Channels.Translate(tt.channel, tt.exchange, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.expected.Kind || got.Str != tt.expected.Str || got.Code != tt.expected.Code {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestChannelTranslatorUnsupported(t *testing.T) {
	s, _ := newTestStandards(t)

	tests := []struct {
		name     string
		channel  entity.Channel
		exchange entity.ExchangeName
		explicit bool
	}{
		{name: "explicitly unsupported", channel: entity.ChannelL3Book, exchange: entity.ExchangeBinance, explicit: true},
		{name: "explicitly unsupported ticker", channel: entity.ChannelTicker, exchange: entity.ExchangeGemini, explicit: true},
		{name: "never evaluated", channel: entity.ChannelFunding, exchange: entity.ExchangeCoinbase, explicit: false},
		{name: "never evaluated volume", channel: entity.ChannelVolume, exchange: entity.ExchangeKraken, explicit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, silent := range []bool{false, true} {
				_, err := s.Channels.Translate(tt.channel, tt.exchange, silent)
				if !errors.Is(err, ErrUnsupportedDataFeed) {
					t.Fatalf("silent=%v: expected ErrUnsupportedDataFeed, got %v", silent, err)
				}

				var feedErr *FeedError
				if !errors.As(err, &feedErr) {
					t.Fatalf("expected *FeedError, got %T", err)
				}
				if feedErr.Explicit != tt.explicit {
					t.Fatalf("expected explicit=%v, got %v", tt.explicit, feedErr.Explicit)
				}
			}
		})
	}
}

func TestChannelTranslatorLookupStates(t *testing.T) {
	s, _ := newTestStandards(t)

	if got := s.Channels.Lookup(entity.ChannelL3Book, entity.ExchangeKraken).State; got != LookupUnsupported {
		t.Fatalf("expected unsupported, got %s", got)
	}
	if got := s.Channels.Lookup(entity.ChannelFunding, entity.ExchangeKraken).State; got != LookupUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if got := s.Channels.Lookup(entity.ChannelTrades, entity.ExchangeKraken); got.State != LookupFound || got.Value.Str != "trade" {
		t.Fatalf("expected found trade, got %+v", got)
	}
}

func TestChannelTranslatorSymbolChannel(t *testing.T) {
	s, _ := newTestStandards(t)

	if err := s.Registry.Warm(context.Background(), entity.ExchangePoloniex); err != nil {
		t.Fatal(err)
	}

	got, err := s.Channels.Translate(entity.Channel("BTC-USDT"), entity.ExchangePoloniex, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Str != "USDT_BTC" {
		t.Fatalf("expected USDT_BTC, got %v", got)
	}

	_, err = s.Channels.Translate(entity.Channel("DOGE-USDT"), entity.ExchangePoloniex, true)
	if !errors.Is(err, ErrUnsupportedTradingPair) {
		t.Fatalf("expected ErrUnsupportedTradingPair, got %v", err)
	}

	_, err = s.Channels.Translate(entity.Channel("BTC-USDT"), entity.ExchangeCoinbase, true)
	if !errors.Is(err, ErrUnsupportedDataFeed) {
		t.Fatalf("expected ErrUnsupportedDataFeed outside poloniex, got %v", err)
	}
}

func TestChannelTranslatorExchanges(t *testing.T) {
	s, _ := newTestStandards(t)

	exchanges := s.Channels.Exchanges(entity.ChannelL3Book)
	expected := []entity.ExchangeName{entity.ExchangeBitfinex, entity.ExchangeBitstamp, entity.ExchangeBlockchain, entity.ExchangeCoinbase}
	if len(exchanges) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, exchanges)
	}
	for i := range expected {
		if exchanges[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, exchanges)
		}
	}
}

func TestNativeValueFormat(t *testing.T) {
	tests := []struct {
		name     string
		value    NativeValue
		symbol   string
		expected string
	}{
		{name: "template", value: StringValue("{}/depth_l2_tbt"), symbol: "spot", expected: "spot/depth_l2_tbt"},
		{name: "plain string", value: StringValue("matches"), symbol: "BTC-USD", expected: "matches"},
		{name: "code", value: CodeValue(1002), symbol: "BTC-USD", expected: "1002"},
		{name: "fragment", value: FragmentValue(map[string]any{"time_in_force": "FOK", "a": 1}), expected: "a=1,time_in_force=FOK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Format(tt.symbol); got != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNativeValueMarshalJSON(t *testing.T) {
	tests := []struct {
		value    NativeValue
		expected string
	}{
		{value: StringValue("matches"), expected: `"matches"`},
		{value: CodeValue(1002), expected: `1002`},
		{value: FragmentValue(map[string]any{"post_only": 1}), expected: `{"post_only":1}`},
	}

	for _, tt := range tests {
		raw, err := tt.value.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		if string(raw) != tt.expected {
			t.Fatalf("expected %s, got %s", tt.expected, raw)
		}
	}
}

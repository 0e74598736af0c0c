package entity

import "github.com/shopspring/decimal"

// SymbolSeparator joins base and quote in a standard symbol, e.g. BTC-USD.
const SymbolSeparator = "-"

type Channel string

const (
	ChannelL2Book       Channel = "l2_book"
	ChannelL3Book       Channel = "l3_book"
	ChannelTrades       Channel = "trades"
	ChannelTicker       Channel = "ticker"
	ChannelVolume       Channel = "volume"
	ChannelFunding      Channel = "funding"
	ChannelOpenInterest Channel = "open_interest"
	ChannelLiquidations Channel = "liquidations"
	ChannelFuturesIndex Channel = "futures_index"
)

var knownChannels = map[Channel]struct{}{
	ChannelL2Book:       {},
	ChannelL3Book:       {},
	ChannelTrades:       {},
	ChannelTicker:       {},
	ChannelVolume:       {},
	ChannelFunding:      {},
	ChannelOpenInterest: {},
	ChannelLiquidations: {},
	ChannelFuturesIndex: {},
}

func (c Channel) Valid() bool {
	_, ok := knownChannels[c]
	return ok
}

type TradingOption string

const (
	OptionLimit             TradingOption = "limit"
	OptionMarket            TradingOption = "market"
	OptionFillOrKill        TradingOption = "fill-or-kill"
	OptionImmediateOrCancel TradingOption = "immediate-or-cancel"
	OptionMakerOrCancel     TradingOption = "maker-or-cancel"
)

var knownOptions = map[TradingOption]struct{}{
	OptionLimit:             {},
	OptionMarket:            {},
	OptionFillOrKill:        {},
	OptionImmediateOrCancel: {},
	OptionMakerOrCancel:     {},
}

func (o TradingOption) Valid() bool {
	_, ok := knownOptions[o]
	return ok
}

// Trade is a public trade normalized to the standard vocabulary. Timestamp is
// epoch seconds.
type Trade struct {
	Exchange  ExchangeName    `json:"exchange"`
	Symbol    string          `json:"symbol"`
	Side      OrderSide       `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	TradeID   string          `json:"trade_id,omitempty"`
	Timestamp float64         `json:"timestamp"`
}

type TradeEvent struct {
	RetryCount int   `json:"retry"`
	Data       Trade `json:"data"`
}

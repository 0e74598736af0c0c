package entity

import (
	"fmt"
	"sort"
	"strings"
)

type ExchangeName string

const (
	ExchangeBinance         ExchangeName = "BINANCE"
	ExchangeBinanceUS       ExchangeName = "BINANCE_US"
	ExchangeBinanceFutures  ExchangeName = "BINANCE_FUTURES"
	ExchangeBinanceDelivery ExchangeName = "BINANCE_DELIVERY"
	ExchangeBitcoinCom      ExchangeName = "BITCOINCOM"
	ExchangeBitfinex        ExchangeName = "BITFINEX"
	ExchangeBitmax          ExchangeName = "BITMAX"
	ExchangeBitmex          ExchangeName = "BITMEX"
	ExchangeBitstamp        ExchangeName = "BITSTAMP"
	ExchangeBittrex         ExchangeName = "BITTREX"
	ExchangeBlockchain      ExchangeName = "BLOCKCHAIN"
	ExchangeBybit           ExchangeName = "BYBIT"
	ExchangeCoinbase        ExchangeName = "COINBASE"
	ExchangeCoinbene        ExchangeName = "COINBENE"
	ExchangeDeribit         ExchangeName = "DERIBIT"
	ExchangeEXX             ExchangeName = "EXX"
	ExchangeFTX             ExchangeName = "FTX"
	ExchangeFTXUS           ExchangeName = "FTX_US"
	ExchangeGateio          ExchangeName = "GATEIO"
	ExchangeGemini          ExchangeName = "GEMINI"
	ExchangeHitBTC          ExchangeName = "HITBTC"
	ExchangeHuobi           ExchangeName = "HUOBI"
	ExchangeHuobiDM         ExchangeName = "HUOBI_DM"
	ExchangeHuobiSwap       ExchangeName = "HUOBI_SWAP"
	ExchangeKraken          ExchangeName = "KRAKEN"
	ExchangeKrakenFutures   ExchangeName = "KRAKEN_FUTURES"
	ExchangeOKCoin          ExchangeName = "OKCOIN"
	ExchangeOKEx            ExchangeName = "OKEX"
	ExchangePoloniex        ExchangeName = "POLONIEX"
	ExchangeProbit          ExchangeName = "PROBIT"
	ExchangeUpbit           ExchangeName = "UPBIT"
)

var supportedExchanges = map[ExchangeName]struct{}{
	ExchangeBinance:         {},
	ExchangeBinanceUS:       {},
	ExchangeBinanceFutures:  {},
	ExchangeBinanceDelivery: {},
	ExchangeBitcoinCom:      {},
	ExchangeBitfinex:        {},
	ExchangeBitmax:          {},
	ExchangeBitmex:          {},
	ExchangeBitstamp:        {},
	ExchangeBittrex:         {},
	ExchangeBlockchain:      {},
	ExchangeBybit:           {},
	ExchangeCoinbase:        {},
	ExchangeCoinbene:        {},
	ExchangeDeribit:         {},
	ExchangeEXX:             {},
	ExchangeFTX:             {},
	ExchangeFTXUS:           {},
	ExchangeGateio:          {},
	ExchangeGemini:          {},
	ExchangeHitBTC:          {},
	ExchangeHuobi:           {},
	ExchangeHuobiDM:         {},
	ExchangeHuobiSwap:       {},
	ExchangeKraken:          {},
	ExchangeKrakenFutures:   {},
	ExchangeOKCoin:          {},
	ExchangeOKEx:            {},
	ExchangePoloniex:        {},
	ExchangeProbit:          {},
	ExchangeUpbit:           {},
}

func (e ExchangeName) Valid() bool {
	_, ok := supportedExchanges[e]
	return ok
}

func (e ExchangeName) String() string {
	return string(e)
}

// ParseExchangeName accepts any casing and surrounding whitespace.
func ParseExchangeName(raw string) (ExchangeName, error) {
	name := ExchangeName(strings.ToUpper(strings.TrimSpace(raw)))
	if !name.Valid() {
		return "", fmt.Errorf("unknown exchange: %q", raw)
	}

	return name, nil
}

func SupportedExchanges() []ExchangeName {
	names := make([]ExchangeName, 0, len(supportedExchanges))
	for name := range supportedExchanges {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

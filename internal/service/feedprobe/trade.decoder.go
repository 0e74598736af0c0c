package feedprobe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TradeDecoder turns raw stream messages of one connection into standard
// trades. Messages that are not trades decode to nothing. A decoder keeps
// per-connection state and must not be shared between connections.
type TradeDecoder struct {
	exchange   entity.ExchangeName
	registry   *standards.SymbolRegistry
	timestamps *standards.TimestampNormalizer

	// bitfinex channel id -> exchange symbol
	bitfinexChannels map[int64]string
}

func NewTradeDecoder(std *standards.Standards, exchange entity.ExchangeName) (*TradeDecoder, error) {
	if _, ok := encoders[exchange]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}

	return &TradeDecoder{
		exchange:         exchange,
		registry:         std.Registry,
		timestamps:       std.Timestamps,
		bitfinexChannels: make(map[int64]string),
	}, nil
}

func (d *TradeDecoder) Decode(message []byte) ([]entity.Trade, error) {
	switch d.exchange {
	case entity.ExchangeBinance:
		return d.decodeBinance(message)
	case entity.ExchangeCoinbase:
		return d.decodeCoinbase(message)
	case entity.ExchangeKraken:
		return d.decodeKraken(message)
	case entity.ExchangeBitfinex:
		return d.decodeBitfinex(message)
	case entity.ExchangeOKEx:
		return d.decodeOKEx(message)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, d.exchange)
	}
}

func (d *TradeDecoder) decodeBinance(message []byte) ([]entity.Trade, error) {
	// key matching falls back to case-insensitive, so the upper case keys
	// need fields of their own to keep them away from e and m
	var payload struct {
		Event        string `json:"e"`
		EventTime    int64  `json:"E"`
		Symbol       string `json:"s"`
		AggID        int64  `json:"a"`
		Price        string `json:"p"`
		Quantity     string `json:"q"`
		TradeTime    int64  `json:"T"`
		BuyerIsMaker bool   `json:"m"`
		Ignore       bool   `json:"M"`
	}

	if err := json.Unmarshal(message, &payload); err != nil {
		return nil, err
	}
	if payload.Event != "aggTrade" {
		return nil, nil
	}

	side := entity.OrderSideBuy
	if payload.BuyerIsMaker {
		side = entity.OrderSideSell
	}

	trade, ok, err := d.trade(payload.Symbol, side, payload.Price, payload.Quantity, payload.TradeTime)
	if err != nil || !ok {
		return nil, err
	}
	trade.TradeID = strconv.FormatInt(payload.AggID, 10)

	return []entity.Trade{trade}, nil
}

func (d *TradeDecoder) decodeCoinbase(message []byte) ([]entity.Trade, error) {
	var payload struct {
		Type      string `json:"type"`
		TradeID   int64  `json:"trade_id"`
		ProductID string `json:"product_id"`
		Size      string `json:"size"`
		Price     string `json:"price"`
		Side      string `json:"side"`
		Time      string `json:"time"`
	}

	if err := json.Unmarshal(message, &payload); err != nil {
		return nil, err
	}
	if payload.Type != "match" && payload.Type != "last_match" {
		return nil, nil
	}

	// side is the maker side, the trade is reported from the taker
	side := entity.OrderSideBuy
	if payload.Side == "buy" {
		side = entity.OrderSideSell
	}

	trade, ok, err := d.trade(payload.ProductID, side, payload.Price, payload.Size, payload.Time)
	if err != nil || !ok {
		return nil, err
	}
	trade.TradeID = strconv.FormatInt(payload.TradeID, 10)

	return []entity.Trade{trade}, nil
}

// Kraken trades arrive as [channelID, [[price, volume, time, side, type, misc]], "trade", pair].
func (d *TradeDecoder) decodeKraken(message []byte) ([]entity.Trade, error) {
	if len(message) == 0 || message[0] != '[' {
		return nil, nil
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, err
	}
	if len(frame) < 4 {
		return nil, nil
	}

	var name, pair string
	if err := json.Unmarshal(frame[len(frame)-2], &name); err != nil || name != "trade" {
		return nil, nil
	}
	if err := json.Unmarshal(frame[len(frame)-1], &pair); err != nil {
		return nil, err
	}

	var rows [][]string
	if err := json.Unmarshal(frame[1], &rows); err != nil {
		return nil, err
	}

	trades := make([]entity.Trade, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			return nil, fmt.Errorf("unexpected kraken trade row %v", row)
		}

		side := entity.OrderSideBuy
		if row[3] == "s" {
			side = entity.OrderSideSell
		}

		trade, ok, err := d.trade(pair, side, row[0], row[1], row[2])
		if err != nil {
			return nil, err
		}
		if ok {
			trades = append(trades, trade)
		}
	}

	return trades, nil
}

// Bitfinex trades arrive as [chanId, "te", [id, mts, amount, price]] after a
// subscribed event binding chanId to a symbol.
func (d *TradeDecoder) decodeBitfinex(message []byte) ([]entity.Trade, error) {
	if len(message) > 0 && message[0] == '{' {
		var event struct {
			Event   string `json:"event"`
			Channel string `json:"channel"`
			ChanID  int64  `json:"chanId"`
			Symbol  string `json:"symbol"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			return nil, err
		}
		if event.Event == "subscribed" && event.Channel == "trades" {
			d.bitfinexChannels[event.ChanID] = event.Symbol
		}
		return nil, nil
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, err
	}
	if len(frame) < 3 {
		return nil, nil
	}

	var chanID int64
	var kind string
	if err := json.Unmarshal(frame[0], &chanID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(frame[1], &kind); err != nil || kind != "te" {
		return nil, nil
	}

	symbol, ok := d.bitfinexChannels[chanID]
	if !ok {
		return nil, nil
	}

	var row []decimal.Decimal
	if err := json.Unmarshal(frame[2], &row); err != nil {
		return nil, err
	}
	if len(row) < 4 {
		return nil, fmt.Errorf("unexpected bitfinex trade %s", frame[2])
	}

	side := entity.OrderSideBuy
	if row[2].IsNegative() {
		side = entity.OrderSideSell
	}

	trade, ok, err := d.trade(symbol, side, row[3].String(), row[2].Abs().String(), row[1].IntPart())
	if err != nil || !ok {
		return nil, err
	}
	trade.TradeID = row[0].String()

	return []entity.Trade{trade}, nil
}

func (d *TradeDecoder) decodeOKEx(message []byte) ([]entity.Trade, error) {
	var payload struct {
		Table string `json:"table"`
		Data  []struct {
			InstrumentID string `json:"instrument_id"`
			Price        string `json:"price"`
			Side         string `json:"side"`
			Size         string `json:"size"`
			Qty          string `json:"qty"`
			Timestamp    string `json:"timestamp"`
			TradeID      string `json:"trade_id"`
		} `json:"data"`
	}

	if err := json.Unmarshal(message, &payload); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(payload.Table, "/trade") {
		return nil, nil
	}

	trades := make([]entity.Trade, 0, len(payload.Data))
	for _, row := range payload.Data {
		side := entity.OrderSideBuy
		if row.Side == "sell" {
			side = entity.OrderSideSell
		}

		amount := row.Size
		if amount == "" {
			amount = row.Qty
		}

		trade, ok, err := d.trade(row.InstrumentID, side, row.Price, amount, row.Timestamp)
		if err != nil {
			return nil, err
		}
		if ok {
			trade.TradeID = row.TradeID
			trades = append(trades, trade)
		}
	}

	return trades, nil
}

// trade reports ok=false for symbols the registry does not know, which are
// skipped rather than failing the stream.
func (d *TradeDecoder) trade(native string, side entity.OrderSide, price, amount string, ts any) (entity.Trade, bool, error) {
	symbol, ok := d.registry.ToStandardOn(d.exchange, native)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"exchange":        d.exchange,
			"exchange_symbol": native,
		}).Debug("skipping trade for unknown symbol")
		return entity.Trade{}, false, nil
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return entity.Trade{}, false, fmt.Errorf("invalid price %q: %w", price, err)
	}

	a, err := decimal.NewFromString(amount)
	if err != nil {
		return entity.Trade{}, false, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	timestamp, err := d.timestamps.Normalize(d.exchange, ts)
	if err != nil {
		return entity.Trade{}, false, err
	}

	return entity.Trade{
		Exchange:  d.exchange,
		Symbol:    symbol,
		Side:      side,
		Price:     p,
		Amount:    a,
		Timestamp: timestamp,
	}, true, nil
}

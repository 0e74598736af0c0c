package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// OrderRequest is an order expressed in the standard vocabulary. Options holds
// exactly one of limit or market plus any time-in-force options.
type OrderRequest struct {
	Exchange      ExchangeName    `json:"exchange"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	Options       []TradingOption `json:"options"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// OrderPayload is the exchange-native order body.
type OrderPayload map[string]any

type OrderDispatcher interface {
	Dispatch(ctx context.Context, exchange ExchangeName, payload OrderPayload) error
}

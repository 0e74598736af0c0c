package ordermanager

import (
	"strings"

	"github.com/krobus00/feed-standards/internal/entity"
)

type optionPlacement int

const (
	// placeField stores the flag under optionField.
	placeField optionPlacement = iota
	// placeList appends the flag to a list under optionField.
	placeList
	// placeKey uses the flag itself as a key set to 1.
	placeKey
)

type orderLayout struct {
	symbolField   string
	sideField     string
	upperSide     bool
	typeField     string
	priceField    string
	quantityField string
	clientIDField string
	optionField   string
	placement     optionPlacement
}

func (l orderLayout) side(side entity.OrderSide) string {
	if l.upperSide {
		return strings.ToUpper(string(side))
	}

	return strings.ToLower(string(side))
}

var orderLayouts = map[entity.ExchangeName]orderLayout{
	entity.ExchangeCoinbase: {
		symbolField:   "product_id",
		sideField:     "side",
		typeField:     "type",
		priceField:    "price",
		quantityField: "size",
		clientIDField: "client_oid",
		optionField:   "time_in_force",
		placement:     placeField,
	},
	entity.ExchangeKraken: {
		symbolField:   "pair",
		sideField:     "type",
		typeField:     "ordertype",
		priceField:    "price",
		quantityField: "volume",
		clientIDField: "cl_ord_id",
		optionField:   "oflags",
		placement:     placeField,
	},
	entity.ExchangeGemini: {
		symbolField:   "symbol",
		sideField:     "side",
		typeField:     "type",
		priceField:    "price",
		quantityField: "amount",
		clientIDField: "client_order_id",
		optionField:   "options",
		placement:     placeList,
	},
	entity.ExchangePoloniex: {
		symbolField:   "currencyPair",
		sideField:     "command",
		priceField:    "rate",
		quantityField: "amount",
		clientIDField: "clientOrderId",
		placement:     placeKey,
	},
	entity.ExchangeBlockchain: {
		symbolField:   "symbol",
		sideField:     "side",
		upperSide:     true,
		typeField:     "ordType",
		priceField:    "price",
		quantityField: "orderQty",
		clientIDField: "clOrdId",
		optionField:   "timeInForce",
		placement:     placeField,
	},
}

package ordermanager

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	ErrInvalidOrder        = errors.New("invalid order")
	ErrUnsupportedExchange = errors.New("order payloads are not supported on exchange")
)

// PayloadBuilder turns a standard OrderRequest into the body an exchange
// expects, translating the symbol and every order option.
type PayloadBuilder struct {
	registry *standards.SymbolRegistry
	options  *standards.OptionNormalizer
}

func NewPayloadBuilder(std *standards.Standards) *PayloadBuilder {
	return &PayloadBuilder{
		registry: std.Registry,
		options:  std.Options,
	}
}

func (b *PayloadBuilder) Exchanges() []entity.ExchangeName {
	names := make([]entity.ExchangeName, 0, len(orderLayouts))
	for name := range orderLayouts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Build returns the native payload for order. instrument is the metadata of
// the traded symbol; when it carries tick_size or step_size the price and
// quantity are rounded down to them.
func (b *PayloadBuilder) Build(order entity.OrderRequest, instrument map[string]any) (entity.OrderPayload, error) {
	if !order.Exchange.Valid() {
		return nil, fmt.Errorf("%w: %q", standards.ErrUnknownExchange, order.Exchange)
	}

	layout, ok := orderLayouts[order.Exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, order.Exchange)
	}

	if !order.Side.Valid() {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidOrder, order.Side)
	}

	orderType, extras, err := splitOptions(order.Options)
	if err != nil {
		return nil, err
	}

	quantity, err := roundDown(order.Quantity, instrument, "step_size")
	if err != nil {
		return nil, err
	}
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, order.Quantity.String())
	}

	symbol, err := b.registry.ToExchange(order.Symbol, order.Exchange)
	if err != nil {
		return nil, err
	}

	typeFlag, err := b.options.Normalize(order.Exchange, orderType)
	if err != nil {
		return nil, err
	}

	payload := entity.OrderPayload{
		layout.symbolField:   symbol,
		layout.sideField:     layout.side(order.Side),
		layout.quantityField: quantity.String(),
	}
	if layout.typeField != "" {
		payload[layout.typeField] = typeFlag.Any()
	}
	if order.ClientOrderID != "" {
		payload[layout.clientIDField] = order.ClientOrderID
	}

	if orderType == entity.OptionLimit {
		price, err := roundDown(order.Price, instrument, "tick_size")
		if err != nil {
			return nil, err
		}
		if !price.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: limit orders need a positive price, got %s", ErrInvalidOrder, order.Price.String())
		}
		payload[layout.priceField] = price.String()
	}

	for _, option := range extras {
		native, err := b.options.Normalize(order.Exchange, option)
		if err != nil {
			return nil, err
		}
		applyOption(payload, layout, native)
	}

	return payload, nil
}

func splitOptions(options []entity.TradingOption) (entity.TradingOption, []entity.TradingOption, error) {
	var orderType entity.TradingOption
	extras := make([]entity.TradingOption, 0, len(options))
	seen := make(map[entity.TradingOption]struct{}, len(options))

	for _, option := range options {
		if _, dup := seen[option]; dup {
			continue
		}
		seen[option] = struct{}{}

		switch option {
		case entity.OptionLimit, entity.OptionMarket:
			if orderType != "" {
				return "", nil, fmt.Errorf("%w: both %s and %s given", ErrInvalidOrder, orderType, option)
			}
			orderType = option
		default:
			extras = append(extras, option)
		}
	}

	if orderType == "" {
		return "", nil, fmt.Errorf("%w: one of %s or %s is required", ErrInvalidOrder, entity.OptionLimit, entity.OptionMarket)
	}

	return orderType, extras, nil
}

func applyOption(payload entity.OrderPayload, layout orderLayout, native standards.NativeValue) {
	if native.Kind == standards.NativeFragment {
		maps.Copy(payload, native.Fragment)
		return
	}

	flag := native.String()
	switch layout.placement {
	case placeList:
		flags, _ := payload[layout.optionField].([]string)
		payload[layout.optionField] = append(flags, flag)
	case placeKey:
		payload[flag] = 1
	default:
		payload[layout.optionField] = flag
	}
}

func roundDown(value decimal.Decimal, instrument map[string]any, key string) (decimal.Decimal, error) {
	raw, ok := instrument[key]
	if !ok || raw == nil {
		return value, nil
	}

	increment, err := decimal.NewFromString(cast.ToString(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s %v", ErrInvalidOrder, key, raw)
	}
	if !increment.GreaterThan(decimal.Zero) {
		return value, nil
	}

	return value.Div(increment).Floor().Mul(increment), nil
}

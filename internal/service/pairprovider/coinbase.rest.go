package pairprovider

import (
	"context"

	"github.com/krobus00/feed-standards/internal/entity"
)

const coinbaseStatusOnline = "online"

type coinbaseProduct struct {
	ID              string `json:"id"`
	BaseCurrency    string `json:"base_currency"`
	QuoteCurrency   string `json:"quote_currency"`
	QuoteIncrement  string `json:"quote_increment"`
	BaseIncrement   string `json:"base_increment"`
	MinMarketFunds  string `json:"min_market_funds"`
	Status          string `json:"status"`
	TradingDisabled bool   `json:"trading_disabled"`
	PostOnly        bool   `json:"post_only"`
	LimitOnly       bool   `json:"limit_only"`
}

func fetchCoinbaseMarkets(ctx context.Context, client *restClient) (entity.PairMapping, entity.InstrumentInfo, error) {
	var products []coinbaseProduct
	if err := client.getJSON(ctx, "/products", &products); err != nil {
		return nil, nil, err
	}

	pairs := make(entity.PairMapping, len(products))
	info := make(entity.InstrumentInfo, len(products))
	for _, product := range products {
		if product.ID == "" || product.Status != coinbaseStatusOnline || product.TradingDisabled {
			continue
		}
		if product.BaseCurrency == "" || product.QuoteCurrency == "" {
			continue
		}

		symbol := standardSymbol(product.BaseCurrency, product.QuoteCurrency)
		pairs[symbol] = product.ID

		metadata := map[string]any{
			"base":       product.BaseCurrency,
			"quote":      product.QuoteCurrency,
			"status":     product.Status,
			"post_only":  product.PostOnly,
			"limit_only": product.LimitOnly,
		}
		if tickSize, ok := normalizeDecimal(product.QuoteIncrement); ok {
			metadata["tick_size"] = tickSize
		}
		if stepSize, ok := normalizeDecimal(product.BaseIncrement); ok {
			metadata["step_size"] = stepSize
		}
		if minFunds, ok := normalizeDecimal(product.MinMarketFunds); ok {
			metadata["min_notional"] = minFunds
		}
		info[symbol] = metadata
	}

	return pairs, info, nil
}

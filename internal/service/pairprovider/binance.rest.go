package pairprovider

import (
	"context"

	"github.com/krobus00/feed-standards/internal/entity"
)

const binanceStatusTrading = "TRADING"

type binanceExchangeInfoResponse struct {
	Symbols []struct {
		Symbol             string `json:"symbol"`
		Status             string `json:"status"`
		BaseAsset          string `json:"baseAsset"`
		QuoteAsset         string `json:"quoteAsset"`
		BaseAssetPrecision int32  `json:"baseAssetPrecision"`
		QuotePrecision     int32  `json:"quotePrecision"`
		Filters            []struct {
			FilterType  string `json:"filterType"`
			TickSize    string `json:"tickSize"`
			StepSize    string `json:"stepSize"`
			MinQty      string `json:"minQty"`
			MinNotional string `json:"minNotional"`
		} `json:"filters"`
	} `json:"symbols"`
}

func fetchBinanceMarkets(ctx context.Context, client *restClient) (entity.PairMapping, entity.InstrumentInfo, error) {
	var resp binanceExchangeInfoResponse
	if err := client.getJSON(ctx, "/api/v3/exchangeInfo", &resp); err != nil {
		return nil, nil, err
	}

	pairs := make(entity.PairMapping, len(resp.Symbols))
	info := make(entity.InstrumentInfo, len(resp.Symbols))
	for _, item := range resp.Symbols {
		if item.Status != binanceStatusTrading || item.Symbol == "" || item.BaseAsset == "" || item.QuoteAsset == "" {
			continue
		}

		symbol := standardSymbol(item.BaseAsset, item.QuoteAsset)
		pairs[symbol] = item.Symbol

		metadata := map[string]any{
			"base":            item.BaseAsset,
			"quote":           item.QuoteAsset,
			"status":          item.Status,
			"base_precision":  item.BaseAssetPrecision,
			"quote_precision": item.QuotePrecision,
		}
		for _, filter := range item.Filters {
			switch filter.FilterType {
			case "PRICE_FILTER":
				if tickSize, ok := normalizeDecimal(filter.TickSize); ok {
					metadata["tick_size"] = tickSize
				}
			case "LOT_SIZE":
				if stepSize, ok := normalizeDecimal(filter.StepSize); ok {
					metadata["step_size"] = stepSize
				}
				if minQty, ok := normalizeDecimal(filter.MinQty); ok {
					metadata["min_qty"] = minQty
				}
			case "NOTIONAL", "MIN_NOTIONAL":
				if minNotional, ok := normalizeDecimal(filter.MinNotional); ok {
					metadata["min_notional"] = minNotional
				}
			}
		}
		info[symbol] = metadata
	}

	return pairs, info, nil
}

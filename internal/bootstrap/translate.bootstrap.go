package bootstrap

import (
	"context"
	"io"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/ordermanager"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func StartTranslateSymbol(cmd *cobra.Command, args []string) {
	exchange := exchangeFlag(cmd)
	symbol, _ := cmd.Flags().GetString("symbol")
	reverse, _ := cmd.Flags().GetBool("reverse")

	withWarmedStandards(exchange, func(ctx context.Context, std *standards.Standards, _ entity.PairProvider) {
		if reverse {
			standard, ok := std.Registry.ToStandardOn(exchange, symbol)
			if !ok {
				util.ContinueOrFatal(standards.ErrUnsupportedTradingPair)
			}
			printJSON(cmd.OutOrStdout(), map[string]any{"exchange": exchange, "exchange_symbol": symbol, "symbol": standard})
			return
		}

		native, err := std.Registry.ToExchange(symbol, exchange)
		util.ContinueOrFatal(err)
		printJSON(cmd.OutOrStdout(), map[string]any{"exchange": exchange, "symbol": symbol, "exchange_symbol": native})
	})
}

func StartTranslateChannel(cmd *cobra.Command, args []string) {
	exchange := exchangeFlag(cmd)
	channel, _ := cmd.Flags().GetString("channel")

	withWarmedStandards(exchange, func(ctx context.Context, std *standards.Standards, _ entity.PairProvider) {
		native, err := std.Channels.Translate(entity.Channel(channel), exchange, false)
		util.ContinueOrFatal(err)
		printJSON(cmd.OutOrStdout(), map[string]any{"exchange": exchange, "channel": channel, "native": native})
	})
}

func StartTranslateOption(cmd *cobra.Command, args []string) {
	exchange := exchangeFlag(cmd)
	option, _ := cmd.Flags().GetString("option")

	std := loadStandards(nil)
	native, err := std.Options.Normalize(exchange, entity.TradingOption(option))
	util.ContinueOrFatal(err)
	printJSON(cmd.OutOrStdout(), map[string]any{"exchange": exchange, "option": option, "native": native})
}

func StartTranslateTimestamp(cmd *cobra.Command, args []string) {
	exchange := exchangeFlag(cmd)
	value, _ := cmd.Flags().GetString("value")

	std := loadStandards(nil)
	seconds, err := std.Timestamps.Normalize(exchange, value)
	util.ContinueOrFatal(err)
	printJSON(cmd.OutOrStdout(), map[string]any{
		"exchange":  exchange,
		"class":     std.Timestamps.Class(exchange).String(),
		"value":     value,
		"timestamp": seconds,
	})
}

func StartTranslateOrder(cmd *cobra.Command, args []string) {
	exchange := exchangeFlag(cmd)
	symbol, _ := cmd.Flags().GetString("symbol")
	side, _ := cmd.Flags().GetString("side")
	rawPrice, _ := cmd.Flags().GetString("price")
	rawQuantity, _ := cmd.Flags().GetString("quantity")
	rawOptions, _ := cmd.Flags().GetStringSlice("options")
	clientOrderID, _ := cmd.Flags().GetString("client-order-id")

	quantity, err := decimal.NewFromString(rawQuantity)
	util.ContinueOrFatal(err)

	price := decimal.Zero
	if rawPrice != "" {
		price, err = decimal.NewFromString(rawPrice)
		util.ContinueOrFatal(err)
	}

	options := make([]entity.TradingOption, 0, len(rawOptions))
	for _, raw := range rawOptions {
		options = append(options, entity.TradingOption(raw))
	}

	withWarmedStandards(exchange, func(ctx context.Context, std *standards.Standards, provider entity.PairProvider) {
		orderManagerService := ordermanager.NewOrderManagerService(
			ordermanager.NewPayloadBuilder(std),
			ordermanager.NewLogDispatcher(),
		).WithInstruments(provider)

		payload, err := orderManagerService.PlaceOrder(ctx, entity.OrderRequest{
			Exchange:      exchange,
			Symbol:        symbol,
			Side:          entity.OrderSide(side),
			Price:         price,
			Quantity:      quantity,
			Options:       options,
			ClientOrderID: clientOrderID,
		})
		util.ContinueOrFatal(err)
		printJSON(cmd.OutOrStdout(), payload)
	})
}

// withWarmedStandards runs fn against translators with exchange loaded and
// closes every store afterwards.
func withWarmedStandards(exchange entity.ExchangeName, fn func(ctx context.Context, std *standards.Standards, provider entity.PairProvider)) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ops := map[string]operation{}
	defer runCleanup(ctx, ops)

	router := newPairProviderRouter(ctx, ops)
	std := loadStandards(router)

	err := std.Registry.Warm(ctx, exchange)
	util.ContinueOrFatal(err)

	fn(ctx, std, router)
}

func exchangeFlag(cmd *cobra.Command) entity.ExchangeName {
	raw, _ := cmd.Flags().GetString("exchange")

	exchange, err := entity.ParseExchangeName(raw)
	util.ContinueOrFatal(err)

	return exchange
}

func printJSON(w io.Writer, payload any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	util.ContinueOrFatal(encoder.Encode(payload))
}

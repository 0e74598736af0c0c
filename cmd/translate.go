/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/feed-standards/internal/bootstrap"
	"github.com/spf13/cobra"
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate standard names for an exchange",
	Long:  `Print the exchange-native form of a symbol, channel, order option, timestamp or order as JSON.`,
}

var translateSymbolCmd = &cobra.Command{
	Use:   "symbol",
	Short: "Translate a trading pair",
	Run:   bootstrap.StartTranslateSymbol,
}

var translateChannelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Translate a feed channel",
	Run:   bootstrap.StartTranslateChannel,
}

var translateOptionCmd = &cobra.Command{
	Use:   "option",
	Short: "Translate an order option",
	Run:   bootstrap.StartTranslateOption,
}

var translateTimestampCmd = &cobra.Command{
	Use:   "timestamp",
	Short: "Normalize an exchange timestamp to epoch seconds",
	Run:   bootstrap.StartTranslateTimestamp,
}

var translateOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Build the exchange order payload",
	Run:   bootstrap.StartTranslateOrder,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.PersistentFlags().String("exchange", "", "exchange name")
	_ = translateCmd.MarkPersistentFlagRequired("exchange")

	translateSymbolCmd.Flags().String("symbol", "", "symbol to translate")
	translateSymbolCmd.Flags().Bool("reverse", false, "translate an exchange symbol back to the standard one")
	translateChannelCmd.Flags().String("channel", "", "standard channel")
	translateOptionCmd.Flags().String("option", "", "standard order option")
	translateTimestampCmd.Flags().String("value", "", "exchange timestamp")

	translateOrderCmd.Flags().String("symbol", "", "standard symbol")
	translateOrderCmd.Flags().String("side", "BUY", "BUY|SELL")
	translateOrderCmd.Flags().String("price", "", "limit price")
	translateOrderCmd.Flags().String("quantity", "", "order quantity")
	translateOrderCmd.Flags().StringSlice("options", []string{"limit"}, "order options")
	translateOrderCmd.Flags().String("client-order-id", "", "client order id")

	translateCmd.AddCommand(translateSymbolCmd, translateChannelCmd, translateOptionCmd, translateTimestampCmd, translateOrderCmd)
}

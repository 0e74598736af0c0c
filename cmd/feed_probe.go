/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/feed-standards/internal/bootstrap"
	"github.com/spf13/cobra"
)

// feedProbeCmd represents the feed-probe command
var feedProbeCmd = &cobra.Command{
	Use:   "feed-probe",
	Short: "Subscribe to an exchange feed using standard names",
	Long: `Translate standard channels and symbols for one exchange, subscribe to its
websocket feed and log the trades normalized back to the standard vocabulary.`,
	Run: bootstrap.StartFeedProbe,
}

func init() {
	rootCmd.AddCommand(feedProbeCmd)
	feedProbeCmd.Flags().String("exchange", "", "exchange name")
	feedProbeCmd.Flags().StringSlice("channels", []string{"trades"}, "standard channels")
	feedProbeCmd.Flags().StringSlice("symbols", nil, "standard symbols, e.g. BTC-USD")
	feedProbeCmd.Flags().Duration("duration", 0, "stop after duration, 0 runs until interrupted")
	_ = feedProbeCmd.MarkFlagRequired("exchange")
	_ = feedProbeCmd.MarkFlagRequired("symbols")
}

/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/feed-standards/internal/bootstrap"
	"github.com/spf13/cobra"
)

// pairSyncCmd represents the pair-sync command
var pairSyncCmd = &cobra.Command{
	Use:   "pair-sync",
	Short: "Sync exchange trading pairs into the pair stores",
	Long: `Fetch the market listings of the configured REST exchanges and store the
standard to exchange symbol pairs and instrument metadata in postgres and redis.
Runs once unless an interval is given.`,
	Run: bootstrap.StartPairSync,
}

func init() {
	rootCmd.AddCommand(pairSyncCmd)
	pairSyncCmd.Flags().StringSlice("exchanges", nil, "exchanges to sync (default: every configured rest exchange)")
	pairSyncCmd.Flags().Bool("postgres", true, "write pairs to postgres")
	pairSyncCmd.Flags().Bool("redis", true, "write pairs to redis")
	pairSyncCmd.Flags().Duration("interval", 0, "sync interval, 0 runs once")
}

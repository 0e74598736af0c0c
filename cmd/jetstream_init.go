/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/feed-standards/internal/bootstrap"
	"github.com/spf13/cobra"
)

// jetstreamInitCmd represents the jetstream-init command
var jetstreamInitCmd = &cobra.Command{
	Use:   "jetstream-init",
	Short: "Create or update the standards stream",
	Long:  `Create the JetStream stream carrying warm requests, warmed events and probed trades, or update it when it already exists.`,
	Run:   bootstrap.StartJetstreamInit,
}

func init() {
	rootCmd.AddCommand(jetstreamInitCmd)
}

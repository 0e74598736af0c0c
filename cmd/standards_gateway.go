/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/feed-standards/internal/bootstrap"
	"github.com/spf13/cobra"
)

// standardsGatewayCmd represents the standards-gateway command
var standardsGatewayCmd = &cobra.Command{
	Use:   "standards-gateway",
	Short: "Start the Standards Gateway service",
	Long: `The Standards Gateway keeps the symbol registry warm and serves symbol,
channel, order option and timestamp translations over HTTP. Warm requests
published on JetStream are applied to every running replica.`,
	Run: bootstrap.StartStandardsGateway,
}

func init() {
	rootCmd.AddCommand(standardsGatewayCmd)
}

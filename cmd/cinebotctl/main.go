package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "cinebotctl",
		Short: "CLI client for the cinebot status API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:10000", "Bot status base URL")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the liveness endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(healthCmd)

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Fetch the operational metrics snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(metricsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/raykavin/smarttrades/pkg/config"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	configPath string
	instrument string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "smarttrades",
		Short:   "Dual-sided martingale SmartTrade bot for 3Commas",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Settings file path")

	rootCmd.AddCommand(
		buildRunCmd(),
		buildStatusCmd(),
		buildReportCmd(),
		buildInitConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		RunE:  runBot,
	}
}

func buildStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the checkpoint of every instrument",
		RunE:  runStatus,
	}
}

func buildReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the statistics of resolved rounds",
		RunE:  runReport,
	}

	reportCmd.Flags().StringVarP(&instrument, "pair", "p", "", "Only report this pair (e.g. USDT_BTC)")

	return reportCmd
}

func buildInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a settings file with placeholders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}

			if err := config.WriteDefault(configPath); err != nil {
				return err
			}

			cmd.Printf("settings written to %s\n", configPath)
			return nil
		},
	}
}

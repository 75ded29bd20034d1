package main

import (
	"fmt"
	"os"

	"PeakWatch/internal/config"
	"PeakWatch/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

// rootCmd is the base command for the PeakWatch CLI
var rootCmd = &cobra.Command{
	Use:   "peakwatch",
	Short: "All-time high / all-time low reporter for exchange spot markets",
	Long: `PeakWatch fetches weekly candles for every eligible spot market, computes
each market's all-time high, the lowest close since that high and the current
drawdown, then exports the sorted views as CSV, prints them as tables and
optionally posts a digest to Telegram.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")

	rootCmd.AddCommand(reportCmd, scheduleCmd, showCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	applyReportFlags(cmd, c)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := logging.Setup(c.Log.Level, c.Log.Format); err != nil {
		return err
	}
	log.Debug().Str("config", configPath).Msg("config loaded")
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

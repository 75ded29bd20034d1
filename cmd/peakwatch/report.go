package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PeakWatch/internal/config"

	"github.com/spf13/cobra"
)

var (
	outputDir string
	workers   int
	colorMode string
	dryRun    bool
)

// reportCmd runs the pipeline once
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one report: fetch, export CSV, print tables, notify",
	Long: `Fetch the market catalog and weekly candles, compute ATH/ATL metrics for
every eligible market and write sort_by_atl_pct.csv, sort_by_now_pct.csv and
watch_by_now_pct.csv to the output directory.

Example usage:
  peakwatch report
  peakwatch report --output-dir=out --workers=8
  peakwatch report --color=never > report.txt
  peakwatch report --dry-run`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for exported CSV files (overrides config)")
	reportCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent candle fetches (overrides config)")
	reportCmd.Flags().StringVar(&colorMode, "color", "", "Table colors: auto, always, never (overrides config)")
	reportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print tables and notify without writing CSV files")
}

// applyReportFlags copies explicitly set report flags over the loaded config.
func applyReportFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("output-dir") == nil {
		return
	}
	if flags.Changed("output-dir") {
		c.Report.OutputDir = outputDir
	}
	if flags.Changed("workers") {
		c.Report.Workers = workers
	}
	if flags.Changed("color") {
		c.Report.Color = colorMode
	}
}

func runReport(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdout, dryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.sched.RunReport(ctx)
	return err
}

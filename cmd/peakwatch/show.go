package main

import (
	"os"
	"path/filepath"

	"PeakWatch/internal/notifier"
	"PeakWatch/internal/recorder"

	"github.com/spf13/cobra"
)

// showCmd renders a previously exported CSV
var showCmd = &cobra.Command{
	Use:   "show <file.csv>",
	Short: "Print an exported CSV view as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := recorder.ReadCSV(args[0])
		if err != nil {
			return err
		}
		mode, err := notifier.ParseColorMode(cfg.Report.Color)
		if err != nil {
			return err
		}
		return notifier.RenderTable(os.Stdout, filepath.Base(args[0]), records, mode.Enabled(os.Stdout))
	},
}

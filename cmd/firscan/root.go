package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "firscan",
	Short: "OCR correction, field extraction and pattern learning for FIRs",
	Long: `firscan reads scanned First Information Reports and pulls structured
fields out of their OCR text.

It provides:
  - OCR of uploaded PDFs and page images
  - Cleanup of common OCR misreads before matching
  - Rule-based extraction of FIR fields with confidence scores
  - Learning of new rules from corrected samples, with versioned rule sets`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.firscan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "firscan home directory (default: ~/.firscan)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

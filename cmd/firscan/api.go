package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running firscan server via HTTP.

These commands require a running server (firscan serve).
Use --server to specify a custom server URL.

Examples:
  firscan api health                    # Check server health
  firscan api extract spans.json        # Extract fields from OCR spans
  firscan api upload fir.pdf            # OCR a scan and extract its fields
  firscan api train sample sample.json  # Submit a corrected sample
  firscan api train retrain             # Learn rules from the corpus
  firscan api rulesets list             # List rule set versions`,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Training corpus and retrain commands",
}

var rulesetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "Rule set version commands",
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Operation metrics commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Extraction at top level of api
	apiCmd.AddCommand((&endpoints.ExtractEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.UploadEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.FileEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	for _, ep := range endpoints.TrainCommands() {
		trainCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.RuleSetCommands() {
		rulesetsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.MetricsCommands() {
		metricsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(trainCmd)
	apiCmd.AddCommand(rulesetsCmd)
	apiCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(apiCmd)
}

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/config"
	"github.com/jackzampolin/firscan/internal/home"
	"github.com/jackzampolin/firscan/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the firscan server",
	Long: `Start the firscan HTTP server.

On start the server opens the SQLite store in the home directory, loads the
active rule set (seeding the built-in rules on first run) and begins serving.
Changes to the config file are picked up while running.

The server provides:
  - /health            - Basic server health check
  - /ready             - Readiness check (store and active rule set)
  - /api/extract       - Extract fields from OCR spans
  - /api/upload        - OCR a scanned FIR and extract its fields
  - /api/train/...     - Submit corrected samples and retrain
  - /api/rulesets/...  - Inspect rule set versions
  - /swagger           - API documentation

Examples:
  firscan serve                    # Start on the configured port (default 8080)
  firscan serve --port 3000        # Start on custom port
  firscan serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cm, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		cm.WatchConfig()

		// Set up logger
		var level slog.Level
		if err := level.UnmarshalText([]byte(cm.Get().Log.Level)); err != nil {
			level = slog.LevelInfo
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
		if f := cm.ConfigFile(); f != "" {
			logger.Info("using config file", "path", f)
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config, 127.0.0.1)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config, 8080)")

	rootCmd.AddCommand(serveCmd)
}

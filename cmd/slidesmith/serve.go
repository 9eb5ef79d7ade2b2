package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/config"
	"github.com/slidesmith/slidesmith/internal/home"
	"github.com/slidesmith/slidesmith/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Slidesmith server",
	Long: `Start the Slidesmith HTTP server.

The server installs the built-in template on first start, watches the config
file for changes, and sweeps expired uploads, decks, and extractions in the
background.

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (templates and LLM providers)
  - /api/*  - Template analysis, layout intelligence, Markdown parsing,
              research, deck generation, and content extraction

Examples:
  slidesmith serve                    # Start on default port 8080
  slidesmith serve --port 3000        # Start on custom port
  slidesmith serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		mgr.WatchConfig()

		cfg := mgr.Get()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel(cfg.LogLevel),
		}))

		hd := homeDir
		if hd == "" {
			hd = cfg.HomeDir
		}
		h, err := home.New(hd)
		if err != nil {
			return err
		}

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" && cfg.Server.Port > 0 {
			port = strconv.Itoa(cfg.Server.Port)
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}

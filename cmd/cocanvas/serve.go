package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/NachoEstevo/co-canvas-google-hackathon/internal/config"
	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the collaboration server",
		Long: `Start the WebSocket sync server.

Configuration is read from the given config file (if any), then
overridden by COCANVAS_* environment variables, then by flags.

Examples:
  cocanvas serve
  cocanvas serve --addr :9000
  cocanvas serve --config /etc/cocanvas/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			var handler slog.Handler
			if logJSON {
				handler = slog.NewJSONHandler(os.Stderr, nil)
			} else {
				handler = slog.NewTextHandler(os.Stderr, nil)
			}
			logger := slog.New(handler)
			slog.SetDefault(logger)

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	return cmd
}

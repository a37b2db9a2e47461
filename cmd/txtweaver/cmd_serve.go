package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/txtweaver/internal/server"
)

// newCmdServe returns a command that runs the HTTP challenge server.
func newCmdServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP challenge server",
		Long: `Run an HTTP server that handles challenge requests.

The API is compatible with ACME clients that support an "httpreq" style
provider: POST /present and POST /cleanup take {"fqdn": ..., "value": ...}
bodies. /health and /metrics are exposed for monitoring.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, err := newRecordClient(cfg, logger)
			if err != nil {
				return err
			}

			if v, _ := cmd.Flags().GetString("listen"); v != "" {
				cfg.ListenAddr = v
			}

			logger.Info("txtweaver starting",
				slog.String("version", Version),
				slog.String("build_date", BuildDate),
				slog.String("go_version", runtime.Version()),
				slog.String("listen", cfg.ListenAddr),
				slog.String("dns_server", client.Server()),
			)

			srv := server.New(cfg.ListenAddr, client,
				server.WithLogger(logger),
				server.WithTTL(uint32(cfg.TTL)),
			)

			if err := srv.Start(); err != nil {
				return fmt.Errorf("starting challenge server: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			sig := <-sigChan
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("challenge server shutdown error", slog.String("error", err.Error()))
			}

			logger.Info("txtweaver shutdown complete")
			return nil
		},
	}

	cmd.Flags().String("listen", "", "Bind address (default from config, env TXTWEAVER_LISTEN)")
	return cmd
}

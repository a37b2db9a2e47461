// txtweaver completes ACME DNS-01 challenges against an RFC 2136 dynamic
// update server. It resolves the zone holding a challenge record via SOA
// probes, optionally chasing CNAMEs first, and sends TSIG-signed updates.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/txtweaver/internal/config"
	"gitlab.bluewillows.net/root/txtweaver/internal/metrics"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-23"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txtweaver",
		Short:   "RFC 2136 dynamic updates for ACME DNS-01 challenges",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("credentials", "c", "", "Credentials file (env TXTWEAVER_CREDENTIALS)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error) (env TXTWEAVER_LOG_LEVEL)")
	cmd.PersistentFlags().String("log-format", "", "Log format (json|text) (env TXTWEAVER_LOG_FORMAT)")

	cmd.AddCommand(newCmdPresent())
	cmd.AddCommand(newCmdCleanup())
	cmd.AddCommand(newCmdZone())
	cmd.AddCommand(newCmdServe())
	cmd.AddCommand(newCmdVersion())
	return cmd
}

// loadConfig builds the runtime configuration from the credentials file
// and environment, with command-line flags taking final precedence, and
// installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("credentials")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.SetBuildInfo(Version, runtime.Version())

	return cfg, logger, nil
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "txtweaver: %v\n", err)
		os.Exit(1)
	}
}

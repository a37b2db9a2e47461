package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/txtweaver/internal/config"
	"gitlab.bluewillows.net/root/txtweaver/pkg/rfc2136"
)

// newRecordClient converts the runtime configuration into an rfc2136 client.
func newRecordClient(cfg *config.Config, logger *slog.Logger) (*rfc2136.Client, error) {
	clientCfg, err := cfg.ToRFC2136()
	if err != nil {
		return nil, err
	}
	return rfc2136.NewClient(clientCfg, rfc2136.WithLogger(logger))
}

// newCmdPresent returns a command that publishes a challenge TXT record.
func newCmdPresent() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "present <fqdn> <value>",
		Short: "Add a challenge TXT record",
		Long: `Add a TXT record with the given value at the given name.

The name is typically the _acme-challenge label under the domain being
validated, and the value the challenge digest issued by the CA.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, err := newRecordClient(cfg, logger)
			if err != nil {
				return err
			}

			ttl, _ := cmd.Flags().GetUint32("ttl")
			if ttl == 0 {
				ttl = uint32(cfg.TTL)
			}

			if err := client.AddTXTRecord(cmd.Context(), args[0], args[1], ttl); err != nil {
				return fmt.Errorf("adding TXT record: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Uint32("ttl", 0, "TTL for the TXT record (default from config)")
	return cmd
}

// newCmdCleanup returns a command that removes a challenge TXT record.
func newCmdCleanup() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <fqdn> <value>",
		Short: "Delete a challenge TXT record",
		Long: `Delete the TXT record with the given value at the given name.

Only the record whose content matches the value is removed; other TXT
records at the same name are left in place.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, err := newRecordClient(cfg, logger)
			if err != nil {
				return err
			}

			if err := client.DeleteTXTRecord(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("deleting TXT record: %w", err)
			}
			return nil
		},
	}
}

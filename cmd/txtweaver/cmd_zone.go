package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCmdZone returns a command that resolves and prints the zone holding a
// record name, without sending any update. Useful for verifying TSIG and
// CNAME settings before pointing an ACME client at the server.
func newCmdZone() *cobra.Command {
	return &cobra.Command{
		Use:   "zone <fqdn>",
		Short: "Resolve the zone that holds a record name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, err := newRecordClient(cfg, logger)
			if err != nil {
				return err
			}

			res, err := client.Resolve(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("resolving zone: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "name: %s\nzone: %s\n", res.Name, res.Zone)
			return nil
		},
	}
}

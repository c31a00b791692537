package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate an old deployment record to the current schema",
		Long: `Migrate upgrades a record written by an older release to the current
schema. Records predating the explicit proxy admin contract get their proxies
moved from implicit sender ownership to the admin contract; proxies owned by
other addresses are left alone and stay foreign-owned.

Records already at the current schema are untouched.`,
		Example: `  upgr migrate -n sepolia`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.MigrateSchema.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Migrated {
				fmt.Fprintln(out, "Record schema is already current, nothing to migrate")
				return nil
			}
			if result.MovedProxies > 0 {
				fmt.Fprintf(out, "Moved %d proxies to admin contract %s\n", result.MovedProxies, result.NewAdmin)
			}
			color.New(color.FgGreen).Fprintln(out, "✅ Record migrated to current schema")
			return nil
		},
	}

	return cmd
}

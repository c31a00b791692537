package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upgradehq/upgr-cli/internal/adapters/progress"
	"github.com/upgradehq/upgr-cli/internal/app"
	"github.com/upgradehq/upgr-cli/internal/config"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "upgr",
		Short: "Upgradeable smart contract deployment manager",
		Long: `upgr reconciles a project's upgr.toml against per-network deployment
records, deploying changed implementations, linking dependency packages and
driving proxy upgrades through the on-chain proxy admin.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot)
			config.BindGlobalFlags(v, cmd)

			var sink usecase.ProgressSink = progress.NewSpinnerSink()
			if v.GetBool("non_interactive") {
				sink = usecase.NopProgress{}
			}

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable progress output")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., mainnet, sepolia)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall operation timeout")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "deployment",
		Title: "Deployment Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "proxy",
		Title: "Proxy Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	pushCmd := NewPushCmd()
	pushCmd.GroupID = "deployment"
	rootCmd.AddCommand(pushCmd)

	statusCmd := NewStatusCmd()
	statusCmd.GroupID = "deployment"
	rootCmd.AddCommand(statusCmd)

	createProxyCmd := NewCreateProxyCmd()
	createProxyCmd.GroupID = "proxy"
	rootCmd.AddCommand(createProxyCmd)

	upgradeCmd := NewUpgradeCmd()
	upgradeCmd.GroupID = "proxy"
	rootCmd.AddCommand(upgradeCmd)

	setAdminCmd := NewSetAdminCmd()
	setAdminCmd.GroupID = "proxy"
	rootCmd.AddCommand(setAdminCmd)

	transferCmd := NewTransferOwnershipCmd()
	transferCmd.GroupID = "management"
	rootCmd.AddCommand(transferCmd)

	migrateCmd := NewMigrateCmd()
	migrateCmd.GroupID = "management"
	rootCmd.AddCommand(migrateCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}

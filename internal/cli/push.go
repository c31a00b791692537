package cli

import (
	"github.com/spf13/cobra"

	"github.com/upgradehq/upgr-cli/internal/cli/render"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// NewPushCmd creates the push command
func NewPushCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Reconcile the project against the network's deployment record",
		Long: `Push compares the project's contracts, libraries and dependencies with
what the network's deployment record says is on chain, then deploys changed
implementations, removes stale ones and relinks dependency packages.

Running push again immediately after a successful push performs no work.`,
		Example: `  # Push to sepolia
  upgr push -n sepolia

  # Push despite blocking validation warnings
  upgr push -n sepolia --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.Push.Run(cmd.Context(), usecase.PushParams{Force: force})
			if err != nil {
				return err
			}

			renderer := render.NewPushRenderer(cmd.OutOrStdout())
			return renderer.Render(result)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Deploy even when validation reports blocking warnings")

	return cmd
}

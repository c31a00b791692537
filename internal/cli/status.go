package cli

import (
	"github.com/spf13/cobra"

	"github.com/upgradehq/upgr-cli/internal/cli/render"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the network's deployment record against the project",
		Long: `Status reports what the deployment record says is on chain for a
network and flags contracts whose local bytecode no longer matches. It never
sends transactions.`,
		Example: `  upgr status -n sepolia`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.Status.Run(cmd.Context())
			if err != nil {
				return err
			}

			renderer := render.NewStatusRenderer(cmd.OutOrStdout())
			return renderer.Render(result)
		},
	}

	return cmd
}

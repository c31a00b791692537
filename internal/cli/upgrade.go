package cli

import (
	"github.com/spf13/cobra"

	"github.com/upgradehq/upgr-cli/internal/cli/render"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	var (
		address       string
		initMethod    string
		initArgs      string
		expectedAdmin string
	)

	cmd := &cobra.Command{
		Use:   "upgrade [contract]",
		Short: "Point owned proxies at their contracts' current implementations",
		Long: `Upgrade brings the project's upgradeable proxies in line with the
implementations recorded by the last push. Proxies whose admin differs from
the expected admin are skipped, never touched.

Without arguments every owned proxy of the project is upgraded.`,
		Example: `  # Upgrade all owned proxies
  upgr upgrade -n sepolia

  # Upgrade only Token proxies
  upgr upgrade Token -n sepolia

  # Upgrade one instance and call a migration initializer
  upgr upgrade Token -n sepolia --address 0xabc... --init-method migrate --init-args 0x...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var contract string
			if len(args) == 1 {
				contract = args[0]
				if _, ok := app.Manifest.Contracts[contract]; !ok {
					return contractNotFound(contract, app.Manifest)
				}
			}

			result, err := app.UpgradeProxies.Run(cmd.Context(), usecase.UpgradeProxiesParams{
				Contract:      contract,
				Address:       address,
				ExpectedAdmin: expectedAdmin,
				Init: usecase.UpgradeOpts{
					InitMethod: initMethod,
					InitArgs:   initArgs,
				},
			})
			if err != nil {
				return err
			}

			renderer := render.NewProxyRenderer(cmd.OutOrStdout())
			return renderer.RenderUpgraded(result)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Upgrade only the proxy at this address")
	cmd.Flags().StringVar(&initMethod, "init-method", "", "Migration method name, for diagnostics")
	cmd.Flags().StringVar(&initArgs, "init-args", "", "ABI-encoded migration calldata, hex")
	cmd.Flags().StringVar(&expectedAdmin, "expected-admin", "", "Override the record's proxy admin as the ownership gate")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/upgradehq/upgr-cli/internal/cli/render"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// NewSetAdminCmd creates the set-admin command
func NewSetAdminCmd() *cobra.Command {
	var (
		contract string
		address  string
	)

	cmd := &cobra.Command{
		Use:   "set-admin <new-admin>",
		Short: "Transfer admin rights of owned proxies to a new address",
		Long: `Set-admin changes which address administers the project's proxies.
Only proxies currently owned by the record's proxy admin are transferred;
foreign-owned proxies are reported and skipped.

Transferring to an address outside upgr's control makes the affected proxies
unmanageable from this tool.`,
		Example: `  # Hand every owned proxy to a multisig
  upgr set-admin 0xSafe... -n mainnet

  # Only Token proxies
  upgr set-admin 0xSafe... -n mainnet --contract Token`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if contract != "" {
				if _, ok := app.Manifest.Contracts[contract]; !ok {
					return contractNotFound(contract, app.Manifest)
				}
			}

			result, err := app.SetProxiesAdmin.Run(cmd.Context(), usecase.SetProxiesAdminParams{
				Contract: contract,
				Address:  address,
				NewAdmin: args[0],
			})
			if err != nil {
				return err
			}

			renderer := render.NewProxyRenderer(cmd.OutOrStdout())
			return renderer.RenderAdminChanged(result, args[0])
		},
	}

	cmd.Flags().StringVar(&contract, "contract", "", "Restrict to one contract's proxies")
	cmd.Flags().StringVar(&address, "address", "", "Restrict to the proxy at this address")

	return cmd
}

// NewTransferOwnershipCmd creates the transfer-ownership command
func NewTransferOwnershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer-ownership <new-owner>",
		Short: "Transfer ownership of the proxy admin contract itself",
		Long: `Transfer-ownership hands control of the proxy admin contract to a new
owner. Proxy records do not change: the admin contract keeps its address,
only the authority over it moves.`,
		Example: `  upgr transfer-ownership 0xSafe... -n mainnet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.TransferOwnershipParams{NewOwner: args[0]}
			if err := app.TransferOwner.Run(cmd.Context(), params); err != nil {
				return err
			}

			renderer := render.NewProxyRenderer(cmd.OutOrStdout())
			return renderer.RenderOwnershipTransferred(args[0])
		},
	}

	return cmd
}

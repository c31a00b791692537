package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upgradehq/upgr-cli/internal/cli/render"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// NewCreateProxyCmd creates the create-proxy command
func NewCreateProxyCmd() *cobra.Command {
	var (
		kind       string
		salt       string
		initMethod string
		initArgs   string
	)

	cmd := &cobra.Command{
		Use:   "create-proxy <contract>",
		Short: "Deploy a new proxy for a pushed contract",
		Long: `Create a proxy instance pointing at the contract's current
implementation. Upgradeable proxies are recorded with the proxy admin as
their owner; minimal proxies are cheap, non-upgradeable clones.`,
		Example: `  # Upgradeable proxy, calling initialize(...) encoded off-line
  upgr create-proxy Token -n sepolia --init-method initialize --init-args 0x8129fc1c...

  # Deterministic address via salt
  upgr create-proxy Token -n sepolia --salt my-token-1

  # Non-upgradeable minimal clone
  upgr create-proxy Token -n sepolia --kind minimal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			proxyKind, err := parseProxyKind(kind)
			if err != nil {
				return err
			}

			alias := args[0]
			if _, ok := app.Manifest.Contracts[alias]; !ok {
				return contractNotFound(alias, app.Manifest)
			}

			result, err := app.CreateProxy.Run(cmd.Context(), usecase.CreateProxyParams{
				Alias: alias,
				Kind:  proxyKind,
				Salt:  salt,
				Init: usecase.UpgradeOpts{
					InitMethod: initMethod,
					InitArgs:   initArgs,
				},
			})
			if err != nil {
				return err
			}

			renderer := render.NewProxyRenderer(cmd.OutOrStdout())
			return renderer.RenderCreated(result)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Proxy kind: upgradeable (default), minimal")
	cmd.Flags().StringVar(&salt, "salt", "", "Salt for deterministic proxy address (upgradeable only)")
	cmd.Flags().StringVar(&initMethod, "init-method", "", "Initializer method name, for diagnostics")
	cmd.Flags().StringVar(&initArgs, "init-args", "", "ABI-encoded initializer calldata, hex")

	return cmd
}

func parseProxyKind(kind string) (models.ProxyKind, error) {
	switch kind {
	case "":
		return "", nil
	case "upgradeable":
		return models.ProxyKindUpgradeable, nil
	case "minimal":
		return models.ProxyKindMinimal, nil
	default:
		return "", fmt.Errorf("invalid proxy kind: %s (valid: upgradeable, minimal)", kind)
	}
}

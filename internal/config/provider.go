package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
)

// ManifestFileName is the project file that marks the project root.
const ManifestFileName = "upgr.toml"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	manifest, err := loadManifestFile(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, ".upgr"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		Manifest:       manifest,
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		network, err := ResolveNetwork(manifest, networkName)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	}

	return cfg, nil
}

// ResolveNetwork resolves a network name against the manifest's [networks]
// sections, expanding env vars in the RPC URL.
func ResolveNetwork(manifest *config.ManifestFile, name string) (*config.Network, error) {
	nc, ok := manifest.Networks[name]
	if !ok {
		return nil, fmt.Errorf("network %s not configured in %s", name, ManifestFileName)
	}
	return &config.Network{
		Name:           name,
		ChainID:        nc.ChainID,
		RPCURL:         os.ExpandEnv(nc.RPCURL),
		ExplorerURL:    nc.ExplorerURL,
		AppAddress:     nc.AppAddress,
		PackageAddress: nc.PackageAddress,
		AdminAddress:   nc.AdminAddress,
		FactoryAddress: nc.FactoryAddress,
	}, nil
}

// FindProjectRoot walks up from the current directory to find upgr.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		manifestPath := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(manifestPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in current directory or any parent", ManifestFileName)
		}
		dir = parent
	}
}

// SetupViper creates a viper instance for the project, loading .env first so
// env expansion in upgr.toml sees the values.
func SetupViper(projectRoot string) *viper.Viper {
	// Best effort: projects without a .env file are fine.
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

	v := viper.New()
	v.SetEnvPrefix("UPGR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("project_root", projectRoot)
	v.SetDefault("timeout", "5m")

	return v
}

// BindGlobalFlags binds cobra persistent flags into viper so flags, env vars
// and defaults resolve through one source.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	bind := func(key, flag string) {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		} else if f := cmd.Root().PersistentFlags().Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	bind("network", "network")
	bind("debug", "debug")
	bind("non_interactive", "non-interactive")
	bind("timeout", "timeout")

	// Flags explicitly set on the command win over everything.
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "network", "debug", "timeout":
			v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
		case "non-interactive":
			v.Set("non_interactive", f.Value.String())
		}
	})
}

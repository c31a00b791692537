//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/upgradehq/upgr-cli/internal/adapters"
	"github.com/upgradehq/upgr-cli/internal/config"
	"github.com/upgradehq/upgr-cli/internal/logging"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		config.ManifestProvider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewLinkDependencies,
		usecase.NewPush,
		usecase.NewCreateProxy,
		usecase.NewUpgradeProxies,
		usecase.NewSetProxiesAdmin,
		usecase.NewTransferOwnership,
		usecase.NewMigrateSchema,
		usecase.NewStatus,

		// App
		NewApp,
	)
	return nil, nil
}

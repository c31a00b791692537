package app

import (
	"log/slog"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config   *config.RuntimeConfig
	Manifest *models.Manifest
	Logger   *slog.Logger

	// Use cases
	Push             *usecase.Push
	CreateProxy      *usecase.CreateProxy
	UpgradeProxies   *usecase.UpgradeProxies
	SetProxiesAdmin  *usecase.SetProxiesAdmin
	TransferOwner    *usecase.TransferOwnership
	MigrateSchema    *usecase.MigrateSchema
	Status           *usecase.Status
	LinkDependencies *usecase.LinkDependencies
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	manifest *models.Manifest,
	logger *slog.Logger,
	push *usecase.Push,
	createProxy *usecase.CreateProxy,
	upgradeProxies *usecase.UpgradeProxies,
	setProxiesAdmin *usecase.SetProxiesAdmin,
	transferOwner *usecase.TransferOwnership,
	migrateSchema *usecase.MigrateSchema,
	status *usecase.Status,
	linkDependencies *usecase.LinkDependencies,
) (*App, error) {
	return &App{
		Config:           cfg,
		Manifest:         manifest,
		Logger:           logger,
		Push:             push,
		CreateProxy:      createProxy,
		UpgradeProxies:   upgradeProxies,
		SetProxiesAdmin:  setProxiesAdmin,
		TransferOwner:    transferOwner,
		MigrateSchema:    migrateSchema,
		Status:           status,
		LinkDependencies: linkDependencies,
	}, nil
}

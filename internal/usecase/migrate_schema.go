package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/version"
)

// MigrateSchemaResult reports what the migration did
type MigrateSchemaResult struct {
	// Migrated is true when the record's schema version advanced.
	Migrated bool
	// MovedProxies counts proxies whose admin moved to the new admin
	// contract.
	MovedProxies int
	// NewAdmin is the admin contract the proxies moved to, when any did.
	NewAdmin string
}

// MigrateSchema detects a stale record schema version and drives the
// one-time migration of proxy ownership to the explicit admin contract
// model. Reconciliation passes run it before touching proxies.
type MigrateSchema struct {
	cfg      *config.RuntimeConfig
	manifest *models.Manifest
	store    RecordStore
	backend  DeploymentBackend
	log      *slog.Logger
}

// NewMigrateSchema creates a new MigrateSchema use case
func NewMigrateSchema(
	cfg *config.RuntimeConfig,
	manifest *models.Manifest,
	store RecordStore,
	backend DeploymentBackend,
	log *slog.Logger,
) *MigrateSchema {
	return &MigrateSchema{
		cfg:      cfg,
		manifest: manifest,
		store:    store,
		backend:  backend,
		log:      log,
	}
}

// Run migrates the record for the configured network if its schema version
// predates the admin migration threshold. The schema version advances only
// after every legacy-owned proxy has moved.
func (uc *MigrateSchema) Run(ctx context.Context) (*MigrateSchemaResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("migrate requires a network: pass --network")
	}
	record, err := uc.store.Load(ctx, uc.cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	if !version.Before(record.SchemaVersion, models.AdminMigrationSchemaVersion) {
		uc.log.Debug("record schema is current", "schemaVersion", record.SchemaVersion)
		return &MigrateSchemaResult{}, nil
	}

	result := &MigrateSchemaResult{Migrated: true}
	proxies := record.GetProxies(domain.ProxyFilter{Kind: string(models.ProxyKindUpgradeable)})

	// With no proxies there is no ownership to move: migration degrades to
	// advancing the schema version.
	if len(proxies) > 0 {
		newAdmin, err := uc.backend.EnsureProxyAdmin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare proxy admin contract: %w", err)
		}

		// Legacy records carry no admin field: every such proxy belongs to
		// the implicit owner and moves to the new admin contract.
		sender, err := uc.backend.GetAdminAddress(ctx)
		if err != nil {
			return nil, err
		}
		legacy, _ := partitionOwned(proxies, sender)

		project := NewProject(uc.manifest, uc.backend)
		if err := project.MigrateProxies(ctx, record, legacy, newAdmin); err != nil {
			return nil, err
		}
		record.SetProxyAdmin(newAdmin)
		result.MovedProxies = len(legacy)
		result.NewAdmin = newAdmin
	}

	record.SchemaVersion = models.CurrentSchemaVersion
	if err := uc.store.Write(ctx, record); err != nil {
		return nil, err
	}
	uc.log.Info("migrated deployment record", "schemaVersion", models.CurrentSchemaVersion, "movedProxies", result.MovedProxies)
	return result, nil
}

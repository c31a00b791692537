package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// SetProxiesAdminParams selects the proxies whose admin moves to NewAdmin.
type SetProxiesAdminParams struct {
	Contract string
	Address  string
	NewAdmin string
}

// SetProxiesAdminResult reports the transferred and skipped proxies
type SetProxiesAdminResult struct {
	Changed []*models.ProxyRecord
	Skipped []*models.ProxyRecord
}

// SetProxiesAdmin transfers the admin of owned proxies to a new address.
type SetProxiesAdmin struct {
	cfg      *config.RuntimeConfig
	manifest *models.Manifest
	store    RecordStore
	backend  DeploymentBackend
	sink     ProgressSink
	log      *slog.Logger
}

// NewSetProxiesAdmin creates a new SetProxiesAdmin use case
func NewSetProxiesAdmin(
	cfg *config.RuntimeConfig,
	manifest *models.Manifest,
	store RecordStore,
	backend DeploymentBackend,
	sink ProgressSink,
	log *slog.Logger,
) *SetProxiesAdmin {
	return &SetProxiesAdmin{
		cfg:      cfg,
		manifest: manifest,
		store:    store,
		backend:  backend,
		sink:     sink,
		log:      log,
	}
}

// Run changes the admin of every selected owned proxy through the backend,
// updating each record entry only after its backend call succeeds.
func (uc *SetProxiesAdmin) Run(ctx context.Context, params SetProxiesAdminParams) (*SetProxiesAdminResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("set-admin requires a network: pass --network")
	}
	if params.NewAdmin == "" {
		return nil, fmt.Errorf("%w: new admin address is required", domain.ErrInvalidAddress)
	}
	record, err := uc.store.Load(ctx, uc.cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	proxies := record.GetProxies(domain.ProxyFilter{
		Package:  uc.manifest.Name,
		Contract: params.Contract,
		Address:  params.Address,
		Kind:     string(models.ProxyKindUpgradeable),
	})
	if params.Address != "" && len(proxies) == 0 {
		return nil, domain.NotFoundErr{Kind: "proxy", Identity: params.Address}
	}

	expectedAdmin := record.ProxyAdminAddress()
	owned, skipped := partitionOwned(proxies, expectedAdmin)
	for _, proxy := range skipped {
		uc.sink.Info(fmt.Sprintf("skipping proxy %s: admin %s does not match expected admin %s", proxy.Address, proxy.Admin, expectedAdmin))
	}

	if err := changeProxiesAdmin(ctx, uc.backend, record, owned, params.NewAdmin); err != nil {
		return nil, err
	}

	if err := uc.store.Write(ctx, record); err != nil {
		return nil, err
	}
	uc.log.Info("transferred proxy admin", "count", len(owned), "newAdmin", params.NewAdmin)
	return &SetProxiesAdminResult{Changed: owned, Skipped: skipped}, nil
}

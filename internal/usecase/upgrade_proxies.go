package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// UpgradeProxiesParams selects which proxies to upgrade and what to call
// after the implementation switch.
type UpgradeProxiesParams struct {
	// Contract restricts the upgrade to one contract alias's proxies;
	// empty upgrades every recorded proxy of the package.
	Contract string
	// Address restricts the upgrade to one proxy instance.
	Address string
	Init    UpgradeOpts
	// ExpectedAdmin overrides the record's proxy admin as the ownership
	// gate for this batch.
	ExpectedAdmin string
}

// UpgradeProxiesResult reports the upgraded, refreshed and skipped proxies.
// Refreshed proxies were already on the target implementation; only their
// recorded version moved.
type UpgradeProxiesResult struct {
	Upgraded  []*models.ProxyRecord
	Refreshed []*models.ProxyRecord
	Skipped   []*models.ProxyRecord
}

// UpgradeProxies brings proxy implementations in line with the manifest's
// freshly pushed implementations.
type UpgradeProxies struct {
	cfg      *config.RuntimeConfig
	manifest *models.Manifest
	store    RecordStore
	backend  DeploymentBackend
	sink     ProgressSink
	log      *slog.Logger
}

// NewUpgradeProxies creates a new UpgradeProxies use case
func NewUpgradeProxies(
	cfg *config.RuntimeConfig,
	manifest *models.Manifest,
	store RecordStore,
	backend DeploymentBackend,
	sink ProgressSink,
	log *slog.Logger,
) *UpgradeProxies {
	return &UpgradeProxies{
		cfg:      cfg,
		manifest: manifest,
		store:    store,
		backend:  backend,
		sink:     sink,
		log:      log,
	}
}

// Run upgrades the selected owned proxies concurrently. A proxy already on
// the manifest implementation is a no-op that still refreshes its recorded
// version. Minimal proxies are never upgraded.
func (uc *UpgradeProxies) Run(ctx context.Context, params UpgradeProxiesParams) (*UpgradeProxiesResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("upgrade requires a network: pass --network")
	}
	record, err := uc.store.Load(ctx, uc.cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	filter := domain.ProxyFilter{
		Package:  uc.manifest.Name,
		Contract: params.Contract,
		Address:  params.Address,
		Kind:     string(models.ProxyKindUpgradeable),
	}
	proxies := record.GetProxies(filter)
	if params.Address != "" && len(proxies) == 0 {
		return nil, domain.NotFoundErr{Kind: "proxy", Identity: params.Address}
	}

	expectedAdmin := params.ExpectedAdmin
	if expectedAdmin == "" {
		expectedAdmin = record.ProxyAdminAddress()
	}
	owned, skipped := partitionOwned(proxies, expectedAdmin)
	for _, proxy := range skipped {
		uc.sink.Info(fmt.Sprintf("skipping proxy %s: admin %s does not match expected admin %s", proxy.Address, proxy.Admin, expectedAdmin))
	}

	refs := selectRefs(record, owned)
	switched := make([]bool, len(refs))
	ops := make([]BatchOp, 0, len(refs))
	for i, ref := range refs {
		ops = append(ops, BatchOp{
			Name: ref.Identity(),
			Run: func(ctx context.Context) error {
				did, err := uc.upgradeOne(ctx, record, ref, params.Init)
				switched[i] = did
				return err
			},
		})
	}
	if err := RunBatch(ctx, "upgrade proxy", ops); err != nil {
		return nil, err
	}

	if err := uc.store.Write(ctx, record); err != nil {
		return nil, err
	}

	result := &UpgradeProxiesResult{Skipped: skipped}
	for i, ref := range refs {
		if switched[i] {
			result.Upgraded = append(result.Upgraded, ref.Proxy)
		} else {
			result.Refreshed = append(result.Refreshed, ref.Proxy)
		}
	}
	return result, nil
}

// upgradeOne compares the proxy's on-chain implementation against the
// registered implementation and upgrades when they differ. The record
// mutates only after the backend call succeeds. The returned bool reports
// whether the implementation actually switched.
func (uc *UpgradeProxies) upgradeOne(ctx context.Context, record *models.DeploymentRecord, ref proxyRef, init UpgradeOpts) (bool, error) {
	alias := contractOfFullName(ref.FullName)
	target, err := uc.backend.GetImplementation(ctx, alias)
	if err != nil {
		return false, err
	}
	current, err := uc.backend.GetProxyImplementation(ctx, ref.Proxy.Address)
	if err != nil {
		return false, err
	}

	if current == target {
		uc.log.Debug("proxy already on target implementation", "proxy", ref.Proxy.Address, "implementation", target)
		return false, record.UpdateProxy(ref.FullName, ref.Proxy.Address, func(p *models.ProxyRecord) {
			p.Version = uc.manifest.Version
			p.Implementation = target
		})
	}

	newImpl, err := uc.backend.UpgradeProxy(ctx, ref.Proxy.Address, alias, init)
	if err != nil {
		return false, err
	}
	return true, record.UpdateProxy(ref.FullName, ref.Proxy.Address, func(p *models.ProxyRecord) {
		p.Implementation = newImpl
		p.Version = uc.manifest.Version
	})
}

// partitionOwned splits proxies into those controlled by the expected admin
// and those that are unowned. Unowned proxies are never mutated.
func partitionOwned(proxies []*models.ProxyRecord, expectedAdmin string) (owned, skipped []*models.ProxyRecord) {
	owned = lo.Filter(proxies, func(p *models.ProxyRecord, _ int) bool { return p.OwnedBy(expectedAdmin) })
	skipped = lo.Filter(proxies, func(p *models.ProxyRecord, _ int) bool { return !p.OwnedBy(expectedAdmin) })
	return owned, skipped
}

// contractOfFullName extracts the contract alias from a proxy bucket key.
func contractOfFullName(fullName string) string {
	for i := len(fullName) - 1; i >= 0; i-- {
		if fullName[i] == '/' {
			return fullName[i+1:]
		}
	}
	return fullName
}

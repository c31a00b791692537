package usecase

import (
	"context"

	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// Project models the published/unpublished split of a reconciliation pass.
// The variant is selected once per pass from the manifest instead of
// branching on published-ness throughout the reconciler.
type Project interface {
	// Published reports whether the project registers with an on-chain
	// package. Only published projects force redeploy bookkeeping on a
	// version bump.
	Published() bool
	// EnsurePackage makes sure the backend's root artifact exists for the
	// target package version.
	EnsurePackage(ctx context.Context, version string) error
	// MigrateProxies moves legacy-owned proxies to the new admin contract.
	MigrateProxies(ctx context.Context, record *models.DeploymentRecord, proxies []*models.ProxyRecord, newAdmin string) error
}

// NewProject picks the project variant for one pass.
func NewProject(manifest *models.Manifest, backend DeploymentBackend) Project {
	if manifest.Published {
		return &publishedProject{backend: backend}
	}
	return &simpleProject{backend: backend}
}

// publishedProject registers its package on chain and migrates proxies
// through the app-level path, which re-registers each proxy with the package
// before changing its admin.
type publishedProject struct {
	backend DeploymentBackend
}

func (p *publishedProject) Published() bool { return true }

func (p *publishedProject) EnsurePackage(ctx context.Context, version string) error {
	addr, err := p.backend.FetchOrDeploy(ctx, version)
	if err != nil {
		return err
	}
	_ = addr
	return nil
}

func (p *publishedProject) MigrateProxies(ctx context.Context, record *models.DeploymentRecord, proxies []*models.ProxyRecord, newAdmin string) error {
	if _, err := p.backend.EnsureProxyFactory(ctx); err != nil {
		return err
	}
	return changeProxiesAdmin(ctx, p.backend, record, proxies, newAdmin)
}

// simpleProject deploys without a package registration; migration changes
// each proxy's admin directly.
type simpleProject struct {
	backend DeploymentBackend
}

func (p *simpleProject) Published() bool { return false }

func (p *simpleProject) EnsurePackage(ctx context.Context, version string) error {
	return nil
}

func (p *simpleProject) MigrateProxies(ctx context.Context, record *models.DeploymentRecord, proxies []*models.ProxyRecord, newAdmin string) error {
	return changeProxiesAdmin(ctx, p.backend, record, proxies, newAdmin)
}

// proxyRef ties a proxy instance to its bucket key so record updates can
// address it by (fullName, address).
type proxyRef struct {
	FullName string
	Proxy    *models.ProxyRecord
}

// Identity is the error tag for batch failures on this proxy.
func (r proxyRef) Identity() string {
	return r.FullName + ":" + r.Proxy.Address
}

// selectRefs resolves the bucket key for each selected proxy.
func selectRefs(record *models.DeploymentRecord, selected []*models.ProxyRecord) []proxyRef {
	want := make(map[*models.ProxyRecord]struct{}, len(selected))
	for _, p := range selected {
		want[p] = struct{}{}
	}
	var refs []proxyRef
	for fullName, bucket := range record.Proxies {
		for _, p := range bucket {
			if _, ok := want[p]; ok {
				refs = append(refs, proxyRef{FullName: fullName, Proxy: p})
			}
		}
	}
	return refs
}

// changeProxiesAdmin runs the admin change for each proxy as a batch. The
// record entry moves only after its backend call succeeds.
func changeProxiesAdmin(ctx context.Context, backend DeploymentBackend, record *models.DeploymentRecord, proxies []*models.ProxyRecord, newAdmin string) error {
	refs := selectRefs(record, proxies)
	ops := make([]BatchOp, 0, len(refs))
	for _, ref := range refs {
		ops = append(ops, BatchOp{
			Name: ref.Identity(),
			Run: func(ctx context.Context) error {
				if err := backend.ChangeProxyAdmin(ctx, ref.Proxy.Address, newAdmin); err != nil {
					return err
				}
				return record.UpdateProxy(ref.FullName, ref.Proxy.Address, func(p *models.ProxyRecord) {
					p.Admin = newAdmin
				})
			},
		})
	}
	return RunBatch(ctx, "change proxy admin", ops)
}

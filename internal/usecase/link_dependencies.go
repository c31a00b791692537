package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/version"
)

// LinkDependencies reconciles the manifest's dependency requirements against
// the record's link state, linking, re-linking or unlinking through the
// deployment backend.
type LinkDependencies struct {
	backend  DeploymentBackend
	registry DependencyRegistry
	log      *slog.Logger
}

// NewLinkDependencies creates a new LinkDependencies use case
func NewLinkDependencies(backend DeploymentBackend, registry DependencyRegistry, log *slog.Logger) *LinkDependencies {
	return &LinkDependencies{
		backend:  backend,
		registry: registry,
		log:      log,
	}
}

// Run links every manifest dependency and unlinks record entries the
// manifest no longer declares. Independent dependencies link concurrently.
func (uc *LinkDependencies) Run(ctx context.Context, record *models.DeploymentRecord, manifest *models.Manifest) error {
	linkOps := make([]BatchOp, 0, len(manifest.Dependencies))
	for name, requirement := range manifest.Dependencies {
		linkOps = append(linkOps, BatchOp{
			Name: name,
			Run: func(ctx context.Context) error {
				return uc.link(ctx, record, name, requirement)
			},
		})
	}
	if err := RunBatch(ctx, "link dependency", linkOps); err != nil {
		return err
	}

	stale := lo.Filter(record.DependencyNames(), func(name string, _ int) bool {
		_, declared := manifest.Dependencies[name]
		return !declared
	})
	unlinkOps := make([]BatchOp, 0, len(stale))
	for _, name := range stale {
		unlinkOps = append(unlinkOps, BatchOp{
			Name: name,
			Run: func(ctx context.Context) error {
				return uc.unlink(ctx, record, name)
			},
		})
	}
	return RunBatch(ctx, "unlink dependency", unlinkOps)
}

// link resolves one dependency against the record and the dependency's own
// published deployment.
func (uc *LinkDependencies) link(ctx context.Context, record *models.DeploymentRecord, name, requirement string) error {
	dep, recorded := record.GetDependency(name)

	// A custom deploy of a satisfying version is re-linked against the
	// project's own deployment; the external package's publication is not
	// consulted.
	if recorded && dep.CustomDeploy {
		if !version.Satisfies(dep.Version, requirement) {
			return domain.VersionMismatchErr{Dependency: name, Version: dep.Version, Requirement: requirement}
		}
		return uc.backend.SetDependency(ctx, name, dep.PackageAddress, dep.Version)
	}

	if recorded && version.Satisfies(dep.Version, requirement) {
		uc.log.Debug("dependency already satisfies requirement", "dependency", name, "version", dep.Version)
		return nil
	}

	pub, err := uc.registry.GetPublication(ctx, name, record.Network)
	if err != nil {
		return err
	}
	if pub == nil || pub.PackageAddress == "" {
		return domain.UnpublishedDependencyErr{Dependency: name, Network: record.Network}
	}
	if !version.Satisfies(pub.Version, requirement) {
		return domain.VersionMismatchErr{Dependency: name, Version: pub.Version, Requirement: requirement}
	}

	if err := uc.backend.SetDependency(ctx, name, pub.PackageAddress, pub.Version); err != nil {
		return err
	}
	record.SetDependency(name, &models.DependencyRecord{
		PackageAddress: pub.PackageAddress,
		Version:        pub.Version,
	})
	uc.log.Debug("linked dependency", "dependency", name, "version", pub.Version)
	return nil
}

// unlink removes a dependency the manifest no longer declares. Unlinking
// something not currently linked is a successful no-op.
func (uc *LinkDependencies) unlink(ctx context.Context, record *models.DeploymentRecord, name string) error {
	unlinked, err := uc.backend.UnsetDependency(ctx, name)
	if err != nil {
		return err
	}
	if !unlinked {
		uc.log.Debug("dependency was not linked on chain", "dependency", name)
	}
	record.UnsetDependency(name)
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// PushParams contains parameters for a push pass
type PushParams struct {
	// Force deploys despite blocking validation warnings.
	Force bool
}

// PushResult summarizes what one push pass changed
type PushResult struct {
	Record            *models.DeploymentRecord
	DeployedContracts []string
	RemovedContracts  []string
	DeployedLibs      []string
	RemovedLibs       []string
	NewVersion        bool
}

// Push reconciles the manifest's contracts, libraries and dependencies
// against the network's deployment record, deploying, removing and relinking
// through the deployment backend.
type Push struct {
	cfg       *config.RuntimeConfig
	manifest  *models.Manifest
	store     RecordStore
	backend   DeploymentBackend
	oracle    ValidationOracle
	artifacts ArtifactRepository
	linker    *LinkDependencies
	sink      ProgressSink
	log       *slog.Logger
}

// NewPush creates a new Push use case
func NewPush(
	cfg *config.RuntimeConfig,
	manifest *models.Manifest,
	store RecordStore,
	backend DeploymentBackend,
	oracle ValidationOracle,
	artifacts ArtifactRepository,
	linker *LinkDependencies,
	sink ProgressSink,
	log *slog.Logger,
) *Push {
	return &Push{
		cfg:       cfg,
		manifest:  manifest,
		store:     store,
		backend:   backend,
		oracle:    oracle,
		artifacts: artifacts,
		linker:    linker,
		sink:      sink,
		log:       log,
	}
}

// Run executes one push pass. Validation and naming errors abort before any
// backend call; per-item backend failures within a phase are aggregated
// after all siblings settle.
func (uc *Push) Run(ctx context.Context, params PushParams) (*PushResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("push requires a network: pass --network")
	}
	network := uc.cfg.Network.Name

	record, err := uc.store.Load(ctx, network)
	if err != nil {
		return nil, err
	}
	project := NewProject(uc.manifest, uc.backend)

	// A new package version always triggers full redeploy bookkeeping.
	// Proxies survive: they track their own implementation and version.
	newVersionRequired := uc.manifest.Version != record.Version && project.Published()
	if newVersionRequired {
		uc.log.Debug("new package version, clearing contract entries", "from", record.Version, "to", uc.manifest.Version)
		record.Frozen = false
		record.ClearContracts()
	}

	contractArtifacts, err := uc.loadContractArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	libArtifacts, contractLibs, err := uc.loadLibraryClosure(ctx, contractArtifacts)
	if err != nil {
		return nil, err
	}

	if collisions := lo.Intersect(lo.Keys(libArtifacts), uc.manifest.Aliases()); len(collisions) > 0 {
		return nil, domain.NamingCollisionErr{Names: collisions}
	}

	libDelta := uc.libraryDelta(record, libArtifacts, newVersionRequired)
	contractDelta := uc.contractDelta(record, contractArtifacts, contractLibs, libDelta, newVersionRequired)
	staleContracts, _ := lo.Difference(record.ContractAliases(), uc.manifest.Aliases())
	staleLibs, _ := lo.Difference(record.SolidityLibNames(), lo.Keys(libArtifacts))

	if record.Frozen && (len(libDelta)+len(contractDelta)+len(staleContracts)+len(staleLibs)) > 0 {
		return nil, domain.FrozenProjectErr{}
	}

	warningsByAlias, err := uc.validateDelta(ctx, record, contractArtifacts, contractDelta, params.Force)
	if err != nil {
		return nil, err
	}

	// The package check runs on every pass, deltas or not: a published
	// project's package must exist on chain before dependencies link
	// against it. The backend only reads when the package is already there.
	if err := project.EnsurePackage(ctx, uc.manifest.Version); err != nil {
		return nil, fmt.Errorf("failed to prepare package for version %s: %w", uc.manifest.Version, err)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "linking", Message: "Linking dependencies", Spinner: true})
	if err := uc.linker.Run(ctx, record, uc.manifest); err != nil {
		return nil, err
	}

	// Libraries deploy before their dependents: linked bytecode embeds the
	// library addresses.
	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "deploying", Message: "Deploying libraries", Spinner: true})
	if err := uc.deployLibraries(ctx, record, libArtifacts, libDelta); err != nil {
		return nil, err
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "deploying", Message: "Deploying contracts", Spinner: true})
	if err := uc.applyContractDelta(ctx, record, contractArtifacts, contractDelta, staleContracts, warningsByAlias); err != nil {
		return nil, err
	}

	if err := uc.removeLibraries(ctx, record, staleLibs); err != nil {
		return nil, err
	}

	record.Version = uc.manifest.Version
	if err := uc.store.Write(ctx, record); err != nil {
		return nil, err
	}

	sort.Strings(contractDelta)
	sort.Strings(staleContracts)
	sort.Strings(libDelta)
	sort.Strings(staleLibs)
	return &PushResult{
		Record:            record,
		DeployedContracts: contractDelta,
		RemovedContracts:  staleContracts,
		DeployedLibs:      libDelta,
		RemovedLibs:       staleLibs,
		NewVersion:        newVersionRequired,
	}, nil
}

// loadContractArtifacts fetches the artifact for every manifest contract.
func (uc *Push) loadContractArtifacts(ctx context.Context) (map[string]*models.Artifact, error) {
	artifacts := make(map[string]*models.Artifact, len(uc.manifest.Contracts))
	for _, alias := range uc.manifest.Aliases() {
		artifact, err := uc.artifacts.GetArtifact(ctx, uc.manifest.ContractName(alias))
		if err != nil {
			return nil, fmt.Errorf("failed to load artifact for contract %s: %w", alias, err)
		}
		artifacts[alias] = artifact
	}
	return artifacts, nil
}

// loadLibraryClosure walks the library references of every contract artifact
// transitively. It returns all reachable library artifacts by name and, per
// contract alias, the set of library names its bytecode depends on.
func (uc *Push) loadLibraryClosure(ctx context.Context, contracts map[string]*models.Artifact) (map[string]*models.Artifact, map[string][]string, error) {
	libs := make(map[string]*models.Artifact)
	contractLibs := make(map[string][]string, len(contracts))

	var walk func(name string, seen map[string]bool) error
	walk = func(name string, seen map[string]bool) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		if _, ok := libs[name]; !ok {
			artifact, err := uc.artifacts.GetLibraryArtifact(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to load artifact for library %s: %w", name, err)
			}
			libs[name] = artifact
		}
		for _, ref := range libs[name].Libraries {
			if err := walk(ref, seen); err != nil {
				return err
			}
		}
		return nil
	}

	for alias, artifact := range contracts {
		seen := make(map[string]bool)
		for _, ref := range artifact.Libraries {
			if err := walk(ref, seen); err != nil {
				return nil, nil, err
			}
		}
		contractLibs[alias] = lo.Keys(seen)
	}
	return libs, contractLibs, nil
}

// libraryDelta selects the libraries that need (re)deployment.
func (uc *Push) libraryDelta(record *models.DeploymentRecord, libs map[string]*models.Artifact, newVersionRequired bool) []string {
	var delta []string
	for name, artifact := range libs {
		if _, recorded := record.GetSolidityLib(name); !recorded {
			delta = append(delta, name)
		} else if !newVersionRequired && !record.HasSameLibBytecode(name, artifact) {
			delta = append(delta, name)
		}
	}
	return delta
}

// contractDelta selects the contracts that need (re)deployment: forced by a
// version bump, changed bytecode, or an upgraded library dependency (linked
// bytecode addresses change with the library).
func (uc *Push) contractDelta(record *models.DeploymentRecord, contracts map[string]*models.Artifact, contractLibs map[string][]string, libDelta []string, newVersionRequired bool) []string {
	changedLibs := lo.SliceToMap(libDelta, func(name string) (string, bool) { return name, true })
	var delta []string
	for alias, artifact := range contracts {
		switch {
		case newVersionRequired:
			delta = append(delta, alias)
		case !record.HasSameBytecode(alias, artifact):
			delta = append(delta, alias)
		case lo.SomeBy(contractLibs[alias], func(name string) bool { return changedLibs[name] }):
			delta = append(delta, alias)
		}
	}
	return delta
}

// validateDelta runs the validation oracle over every contract in the delta.
// Blocking warnings abort the whole push before any deployment unless the
// operation is forced.
func (uc *Push) validateDelta(ctx context.Context, record *models.DeploymentRecord, contracts map[string]*models.Artifact, delta []string, force bool) (map[string][]models.Warning, error) {
	warningsByAlias := make(map[string][]models.Warning, len(delta))
	var blocked []string
	for _, alias := range delta {
		prior, _ := record.GetContract(alias)
		warnings := uc.oracle.Validate(ctx, contracts[alias], prior)
		warningsByAlias[alias] = warnings
		for _, w := range warnings {
			uc.sink.Info(fmt.Sprintf("%s: %s", alias, w.Message))
		}
		if models.HasBlocking(warnings) {
			blocked = append(blocked, alias)
		}
	}
	if len(blocked) > 0 && !force {
		return nil, domain.ValidationFailureErr{Contracts: blocked}
	}
	return warningsByAlias, nil
}

// deployLibraries pushes the library delta as one concurrent batch.
func (uc *Push) deployLibraries(ctx context.Context, record *models.DeploymentRecord, libs map[string]*models.Artifact, delta []string) error {
	ops := make([]BatchOp, 0, len(delta))
	for _, name := range delta {
		artifact := libs[name]
		ops = append(ops, BatchOp{
			Name: name,
			Run: func(ctx context.Context) error {
				address, err := uc.backend.SetImplementation(ctx, artifact, name)
				if err != nil {
					return err
				}
				return record.SetSolidityLib(name, &models.SolidityLibRecord{
					Address:              address,
					LocalBytecodeHash:    artifact.BytecodeHash,
					DeployedBytecodeHash: artifact.BytecodeHash,
					ConstructorCode:      artifact.ConstructorCode,
					BodyBytecodeHash:     artifact.BodyBytecodeHash,
				})
			},
		})
	}
	return RunBatch(ctx, "deploy library", ops)
}

// applyContractDelta deploys changed contracts and removes stale ones in a
// single concurrent batch: the operations are independent and each mutates
// only its own record key.
func (uc *Push) applyContractDelta(ctx context.Context, record *models.DeploymentRecord, contracts map[string]*models.Artifact, delta, stale []string, warningsByAlias map[string][]models.Warning) error {
	ops := make([]BatchOp, 0, len(delta)+len(stale))
	for _, alias := range delta {
		artifact := contracts[alias]
		ops = append(ops, BatchOp{
			Name: alias,
			Run: func(ctx context.Context) error {
				address, err := uc.backend.SetImplementation(ctx, artifact, alias)
				if err != nil {
					return err
				}
				return record.SetContract(alias, &models.ContractRecord{
					Address:              address,
					LocalBytecodeHash:    artifact.BytecodeHash,
					DeployedBytecodeHash: artifact.BytecodeHash,
					ConstructorCode:      artifact.ConstructorCode,
					BodyBytecodeHash:     artifact.BodyBytecodeHash,
					StorageLayout:        artifact.StorageLayout,
					Warnings:             models.WarningMessages(warningsByAlias[alias]),
				})
			},
		})
	}
	for _, alias := range stale {
		ops = append(ops, BatchOp{
			Name: alias,
			Run: func(ctx context.Context) error {
				if err := uc.backend.UnsetImplementation(ctx, alias); err != nil {
					return err
				}
				return record.UnsetContract(alias)
			},
		})
	}
	return RunBatch(ctx, "push contract", ops)
}

// removeLibraries drops recorded libraries no longer referenced by any
// manifest contract.
func (uc *Push) removeLibraries(ctx context.Context, record *models.DeploymentRecord, stale []string) error {
	ops := make([]BatchOp, 0, len(stale))
	for _, name := range stale {
		ops = append(ops, BatchOp{
			Name: name,
			Run: func(ctx context.Context) error {
				if err := uc.backend.UnsetImplementation(ctx, name); err != nil {
					return err
				}
				return record.UnsetSolidityLib(name)
			},
		})
	}
	return RunBatch(ctx, "remove library", ops)
}

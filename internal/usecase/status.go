package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/version"
)

// StatusResult is a read-only snapshot of one network's deployment record.
type StatusResult struct {
	Network       string
	SchemaVersion string
	Version       string
	Frozen        bool
	ProxyAdmin    string
	Contracts     []StatusContract
	SolidityLibs  []StatusContract
	Proxies       []StatusProxy
	Dependencies  []StatusDependency
}

// StatusContract is one contract or library row
type StatusContract struct {
	Alias   string
	Address string
	Changed bool // local artifact differs from the recorded deployment
}

// StatusProxy is one proxy row
type StatusProxy struct {
	FullName       string
	Address        string
	Version        string
	Implementation string
	Admin          string
	Kind           models.ProxyKind
}

// StatusDependency is one dependency row
type StatusDependency struct {
	Name         string
	Version      string
	Requirement  string
	CustomDeploy bool
	Satisfied    bool
}

// Status summarizes the deployment record against the current manifest.
type Status struct {
	cfg       *config.RuntimeConfig
	manifest  *models.Manifest
	store     RecordStore
	artifacts ArtifactRepository
}

// NewStatus creates a new Status use case
func NewStatus(cfg *config.RuntimeConfig, manifest *models.Manifest, store RecordStore, artifacts ArtifactRepository) *Status {
	return &Status{cfg: cfg, manifest: manifest, store: store, artifacts: artifacts}
}

// Run builds the record summary. It performs no backend calls and never
// mutates the record.
func (uc *Status) Run(ctx context.Context) (*StatusResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("status requires a network: pass --network")
	}
	record, err := uc.store.Load(ctx, uc.cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		Network:       record.Network,
		SchemaVersion: record.SchemaVersion,
		Version:       record.Version,
		Frozen:        record.Frozen,
		ProxyAdmin:    record.ProxyAdminAddress(),
	}

	for _, alias := range record.ContractAliases() {
		contract, _ := record.GetContract(alias)
		row := StatusContract{Alias: alias, Address: contract.Address}
		if artifact, err := uc.artifacts.GetArtifact(ctx, uc.manifest.ContractName(alias)); err == nil {
			row.Changed = !record.HasSameBytecode(alias, artifact)
		}
		result.Contracts = append(result.Contracts, row)
	}
	sort.Slice(result.Contracts, func(i, j int) bool { return result.Contracts[i].Alias < result.Contracts[j].Alias })

	for _, name := range record.SolidityLibNames() {
		lib, _ := record.GetSolidityLib(name)
		row := StatusContract{Alias: name, Address: lib.Address}
		if artifact, err := uc.artifacts.GetLibraryArtifact(ctx, name); err == nil {
			row.Changed = !record.HasSameLibBytecode(name, artifact)
		}
		result.SolidityLibs = append(result.SolidityLibs, row)
	}
	sort.Slice(result.SolidityLibs, func(i, j int) bool { return result.SolidityLibs[i].Alias < result.SolidityLibs[j].Alias })

	for fullName, bucket := range record.Proxies {
		for _, proxy := range bucket {
			result.Proxies = append(result.Proxies, StatusProxy{
				FullName:       fullName,
				Address:        proxy.Address,
				Version:        proxy.Version,
				Implementation: proxy.Implementation,
				Admin:          proxy.Admin,
				Kind:           proxy.Kind,
			})
		}
	}
	sort.Slice(result.Proxies, func(i, j int) bool {
		if result.Proxies[i].FullName != result.Proxies[j].FullName {
			return result.Proxies[i].FullName < result.Proxies[j].FullName
		}
		return result.Proxies[i].Address < result.Proxies[j].Address
	})

	for _, name := range record.DependencyNames() {
		dep, _ := record.GetDependency(name)
		requirement := uc.manifest.Dependencies[name]
		result.Dependencies = append(result.Dependencies, StatusDependency{
			Name:         name,
			Version:      dep.Version,
			Requirement:  requirement,
			CustomDeploy: dep.CustomDeploy,
			Satisfied:    dep.CustomDeploy || version.Satisfies(dep.Version, requirement),
		})
	}
	sort.Slice(result.Dependencies, func(i, j int) bool { return result.Dependencies[i].Name < result.Dependencies[j].Name })

	return result, nil
}

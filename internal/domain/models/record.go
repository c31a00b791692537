package models

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/upgradehq/upgr-cli/internal/domain"
)

// CurrentSchemaVersion is the deployment record format version written by
// this build. It is distinct from the package's own semantic version.
const CurrentSchemaVersion = "2.2"

// AdminMigrationSchemaVersion is the first schema version in which every
// proxy carries an explicit admin and the record tracks a proxy admin
// contract. Records below it go through the one-time ownership migration.
const AdminMigrationSchemaVersion = "2.2"

// ProxyKind distinguishes upgradeable proxies from minimal clones
type ProxyKind string

const (
	// ProxyKindUpgradeable is an admin-controlled proxy whose implementation can change
	ProxyKindUpgradeable ProxyKind = "Upgradeable"
	// ProxyKindMinimal is a non-upgradeable EIP-1167 clone
	ProxyKindMinimal ProxyKind = "Minimal"
)

// ContractRecord is the persisted state of one deployed logic contract
type ContractRecord struct {
	Address              string          `json:"address"`
	LocalBytecodeHash    string          `json:"localBytecodeHash"`
	DeployedBytecodeHash string          `json:"deployedBytecodeHash"`
	ConstructorCode      string          `json:"constructorCode,omitempty"`
	BodyBytecodeHash     string          `json:"bodyBytecodeHash,omitempty"`
	StorageLayout        json.RawMessage `json:"storageLayout,omitempty"`
	Warnings             []string        `json:"warnings,omitempty"`
}

// SolidityLibRecord is the persisted state of one deployed solidity library.
// Libraries have no instance storage, so no layout is tracked.
type SolidityLibRecord struct {
	Address              string `json:"address"`
	LocalBytecodeHash    string `json:"localBytecodeHash"`
	DeployedBytecodeHash string `json:"deployedBytecodeHash"`
	ConstructorCode      string `json:"constructorCode,omitempty"`
	BodyBytecodeHash     string `json:"bodyBytecodeHash,omitempty"`
}

// ProxyRecord is one proxy instance of a contract. Multiple instances per
// contract are allowed; they live in the bucket keyed by FullName.
type ProxyRecord struct {
	Address        string    `json:"address"`
	Version        string    `json:"version"`
	Implementation string    `json:"implementation"`
	Admin          string    `json:"admin,omitempty"`
	Kind           ProxyKind `json:"kind,omitempty"`
}

// OwnedBy reports whether the proxy is controlled by the expected admin. A
// proxy without an admin field predates explicit ownership tracking and is
// treated as owned.
func (p *ProxyRecord) OwnedBy(admin string) bool {
	return p.Admin == "" || p.Admin == admin
}

// DependencyRecord is the persisted link state of one external package
type DependencyRecord struct {
	PackageAddress string `json:"package"`
	Version        string `json:"version"`
	CustomDeploy   bool   `json:"customDeploy,omitempty"`
}

// AddressRecord is a singleton on-chain collaborator address
type AddressRecord struct {
	Address string `json:"address"`
}

// DeploymentRecord is the persisted actual-state ledger for one network:
// which contracts, libraries, proxies and dependencies exist on chain and at
// which addresses. It is mutated exclusively during a reconciliation pass and
// written back only when its content changed.
type DeploymentRecord struct {
	SchemaVersion string                       `json:"schemaVersion"`
	Version       string                       `json:"version,omitempty"`
	Frozen        bool                         `json:"frozen,omitempty"`
	Contracts     map[string]*ContractRecord   `json:"contracts"`
	SolidityLibs  map[string]*SolidityLibRecord `json:"solidityLibs"`
	Proxies       map[string][]*ProxyRecord    `json:"proxies"`
	Dependencies  map[string]*DependencyRecord `json:"dependencies"`
	ProxyAdmin    *AddressRecord               `json:"proxyAdmin,omitempty"`
	ProxyFactory  *AddressRecord               `json:"proxyFactory,omitempty"`
	App           *AddressRecord               `json:"app,omitempty"`
	Package       *AddressRecord               `json:"package,omitempty"`
	Provider      *AddressRecord               `json:"provider,omitempty"`

	// Network is the record's network name; set by the store, not persisted
	// in the file body (the file is keyed by network in its path).
	Network string `json:"-"`

	mu sync.Mutex
}

// NewDeploymentRecord creates an empty record for a network at the current
// schema version.
func NewDeploymentRecord(network string) *DeploymentRecord {
	r := &DeploymentRecord{SchemaVersion: CurrentSchemaVersion, Network: network}
	r.Normalize()
	return r
}

// FullName is the proxy bucket key for a contract alias of a package.
func FullName(pkg, contract string) string {
	return fmt.Sprintf("%s/%s", pkg, contract)
}

// Normalize resolves optional fields to their defaults after load: nil maps
// become empty and proxies without an explicit kind become upgradeable.
// Defaults are fixed here once, not re-derived at every access site.
func (r *DeploymentRecord) Normalize() {
	if r.Contracts == nil {
		r.Contracts = make(map[string]*ContractRecord)
	}
	if r.SolidityLibs == nil {
		r.SolidityLibs = make(map[string]*SolidityLibRecord)
	}
	if r.Proxies == nil {
		r.Proxies = make(map[string][]*ProxyRecord)
	}
	if r.Dependencies == nil {
		r.Dependencies = make(map[string]*DependencyRecord)
	}
	for _, bucket := range r.Proxies {
		for _, proxy := range bucket {
			if proxy.Kind == "" {
				proxy.Kind = ProxyKindUpgradeable
			}
		}
	}
}

// GetContract returns the recorded contract for an alias.
func (r *DeploymentRecord) GetContract(alias string) (*ContractRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Contracts[alias]
	return c, ok
}

// SetContract records a successfully deployed contract. It fails while the
// record is frozen: a frozen version admits no contract mutation.
func (r *DeploymentRecord) SetContract(alias string, contract *ContractRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frozen {
		return domain.FrozenProjectErr{Alias: alias}
	}
	r.Contracts[alias] = contract
	return nil
}

// UnsetContract removes a contract entry. Fails while frozen.
func (r *DeploymentRecord) UnsetContract(alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frozen {
		return domain.FrozenProjectErr{Alias: alias}
	}
	delete(r.Contracts, alias)
	return nil
}

// ContractAliases returns the aliases of all recorded contracts.
func (r *DeploymentRecord) ContractAliases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	aliases := make([]string, 0, len(r.Contracts))
	for alias := range r.Contracts {
		aliases = append(aliases, alias)
	}
	return aliases
}

// ClearContracts drops all contract entries. Used when a new package version
// forces full redeploy bookkeeping; proxies survive since they track their
// own implementation and version.
func (r *DeploymentRecord) ClearContracts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Contracts = make(map[string]*ContractRecord)
}

// HasSameBytecode reports whether the artifact's bytecode hash equals the
// hash of the last artifact deployed for the alias. A mismatch means the
// contract changed and needs redeploy.
func (r *DeploymentRecord) HasSameBytecode(alias string, artifact *Artifact) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Contracts[alias]
	return ok && c.LocalBytecodeHash == artifact.BytecodeHash
}

// GetSolidityLib returns the recorded library by name.
func (r *DeploymentRecord) GetSolidityLib(name string) (*SolidityLibRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.SolidityLibs[name]
	return l, ok
}

// SetSolidityLib records a deployed library. Fails while frozen.
func (r *DeploymentRecord) SetSolidityLib(name string, lib *SolidityLibRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frozen {
		return domain.FrozenProjectErr{Alias: name}
	}
	r.SolidityLibs[name] = lib
	return nil
}

// UnsetSolidityLib removes a library entry. Fails while frozen.
func (r *DeploymentRecord) UnsetSolidityLib(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Frozen {
		return domain.FrozenProjectErr{Alias: name}
	}
	delete(r.SolidityLibs, name)
	return nil
}

// SolidityLibNames returns the names of all recorded libraries.
func (r *DeploymentRecord) SolidityLibNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.SolidityLibs))
	for name := range r.SolidityLibs {
		names = append(names, name)
	}
	return names
}

// HasSameLibBytecode reports whether the library artifact matches the
// recorded deployment.
func (r *DeploymentRecord) HasSameLibBytecode(name string, artifact *Artifact) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.SolidityLibs[name]
	return ok && l.LocalBytecodeHash == artifact.BytecodeHash
}

// GetProxies returns the flattened list of proxies across all buckets that
// match the filter. Absent filter fields match everything.
func (r *DeploymentRecord) GetProxies(filter domain.ProxyFilter) []*ProxyRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*ProxyRecord
	for fullName, bucket := range r.Proxies {
		if !filter.MatchesFullName(fullName) {
			continue
		}
		for _, proxy := range bucket {
			if filter.Address != "" && filter.Address != proxy.Address {
				continue
			}
			if filter.Kind != "" && filter.Kind != string(proxy.Kind) {
				continue
			}
			result = append(result, proxy)
		}
	}
	return result
}

// AddProxy appends a proxy instance to the bucket for fullName.
func (r *DeploymentRecord) AddProxy(fullName string, proxy *ProxyRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if proxy.Kind == "" {
		proxy.Kind = ProxyKindUpgradeable
	}
	r.Proxies[fullName] = append(r.Proxies[fullName], proxy)
}

// RemoveProxy deletes the proxy identified by (fullName, address). Removing
// the last instance drops the bucket.
func (r *DeploymentRecord) RemoveProxy(fullName, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := r.Proxies[fullName]
	for i, proxy := range bucket {
		if proxy.Address == address {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(r.Proxies, fullName)
			} else {
				r.Proxies[fullName] = bucket
			}
			return nil
		}
	}
	return domain.NotFoundErr{Kind: "proxy", Identity: fmt.Sprintf("%s:%s", fullName, address)}
}

// UpdateProxy applies fn to the proxy identified by (fullName, address).
// A missing proxy is a programming-contract violation and is surfaced
// immediately rather than silently ignored.
func (r *DeploymentRecord) UpdateProxy(fullName, address string, fn func(*ProxyRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, proxy := range r.Proxies[fullName] {
		if proxy.Address == address {
			fn(proxy)
			return nil
		}
	}
	return domain.NotFoundErr{Kind: "proxy", Identity: fmt.Sprintf("%s:%s", fullName, address)}
}

// GetDependency returns the recorded link state for a dependency.
func (r *DeploymentRecord) GetDependency(name string) (*DependencyRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Dependencies[name]
	return d, ok
}

// SetDependency records a linked dependency.
func (r *DeploymentRecord) SetDependency(name string, dep *DependencyRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Dependencies[name] = dep
}

// UnsetDependency deletes a dependency entry.
func (r *DeploymentRecord) UnsetDependency(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Dependencies, name)
}

// DependencyNames returns the names of all recorded dependencies.
func (r *DeploymentRecord) DependencyNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Dependencies))
	for name := range r.Dependencies {
		names = append(names, name)
	}
	return names
}

// ProxyAdminAddress returns the registered proxy admin contract address, or
// empty when none has been deployed yet.
func (r *DeploymentRecord) ProxyAdminAddress() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ProxyAdmin == nil {
		return ""
	}
	return r.ProxyAdmin.Address
}

// SetProxyAdmin registers the proxy admin contract address.
func (r *DeploymentRecord) SetProxyAdmin(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ProxyAdmin = &AddressRecord{Address: address}
}

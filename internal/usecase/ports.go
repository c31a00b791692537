package usecase

import (
	"context"

	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// RecordStore handles persistence of per-network deployment records.
type RecordStore interface {
	// Load reads the record for a network, creating an empty one at the
	// current schema version on first use.
	Load(ctx context.Context, network string) (*models.DeploymentRecord, error)
	// Write persists the record if its content changed since Load. Callers
	// may call it unconditionally.
	Write(ctx context.Context, record *models.DeploymentRecord) error
}

// ArtifactRepository provides compiled contract artifacts. Compilation
// itself happens outside this tool; artifacts arrive with oracle-computed
// bytecode hashes already attached.
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, contractName string) (*models.Artifact, error)
	// GetLibraryArtifact resolves a solidity library by name.
	GetLibraryArtifact(ctx context.Context, libName string) (*models.Artifact, error)
}

// UpgradeOpts carries the optional initializer call applied during a proxy
// upgrade or creation.
type UpgradeOpts struct {
	InitMethod string
	InitArgs   string // ABI-encoded, hex
}

// DeploymentBackend is the external transaction-driving collaborator. It
// serializes or pipelines the underlying transactions itself; the reconciler
// treats every call as an opaque, possibly slow operation.
type DeploymentBackend interface {
	// FetchOrDeploy ensures the root package artifact exists on chain for
	// the given version and returns its address.
	FetchOrDeploy(ctx context.Context, version string) (string, error)

	// SetImplementation deploys a logic contract and registers it under the
	// alias, returning the deployed address. The alias is the directory key
	// for every later implementation lookup.
	SetImplementation(ctx context.Context, artifact *models.Artifact, alias string) (string, error)
	// UnsetImplementation removes the alias registration.
	UnsetImplementation(ctx context.Context, alias string) error
	// GetImplementation returns the registered address for an alias.
	GetImplementation(ctx context.Context, alias string) (string, error)

	CreateProxy(ctx context.Context, alias string, opts UpgradeOpts) (*models.ProxyInstance, error)
	CreateProxyWithSalt(ctx context.Context, alias string, salt string, opts UpgradeOpts) (*models.ProxyInstance, error)
	CreateMinimalProxy(ctx context.Context, alias string, opts UpgradeOpts) (*models.ProxyInstance, error)
	// ProxyCreationAddress predicts the address a salted creation would use.
	ProxyCreationAddress(ctx context.Context, salt string) (string, error)
	// HasCode reports whether an address already holds deployed code.
	HasCode(ctx context.Context, address string) (bool, error)

	UpgradeProxy(ctx context.Context, proxyAddress string, alias string, opts UpgradeOpts) (string, error)
	// GetProxyImplementation reads the current implementation behind a proxy.
	GetProxyImplementation(ctx context.Context, proxyAddress string) (string, error)
	ChangeProxyAdmin(ctx context.Context, proxyAddress string, newAdmin string) error
	// TransferAdminOwnership hands the admin contract itself to a new owner.
	TransferAdminOwnership(ctx context.Context, newOwner string) error

	SetDependency(ctx context.Context, name, packageAddress, version string) error
	// UnsetDependency unlinks a dependency. Unlinking a dependency that is
	// not currently linked is a successful no-op, reported as false.
	UnsetDependency(ctx context.Context, name string) (bool, error)

	// EnsureProxyAdmin fetches or deploys the proxy admin contract.
	EnsureProxyAdmin(ctx context.Context) (string, error)
	// EnsureProxyFactory fetches or deploys the proxy factory contract.
	EnsureProxyFactory(ctx context.Context) (string, error)
	// GetAdminAddress returns the sender identity driving admin operations.
	GetAdminAddress(ctx context.Context) (string, error)
}

// ValidationOracle performs upgrade-safety validation and bytecode hashing.
type ValidationOracle interface {
	Validate(ctx context.Context, artifact *models.Artifact, prior *models.ContractRecord) []models.Warning
	BytecodeHash(artifact *models.Artifact) string
}

// DependencyRegistry looks up the published deployments of external packages.
type DependencyRegistry interface {
	// GetPublication returns the dependency's own published deployment
	// record for a network. PackageAddress is empty when the dependency has
	// never been deployed there.
	GetPublication(ctx context.Context, name, network string) (*models.DependencyPublication, error)
}

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Current int
	Total   int
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

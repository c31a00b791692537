package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Network: &config.Network{Name: "testnet", ChainID: 31337},
	}
}

func testManifest() *models.Manifest {
	return &models.Manifest{
		Name:         "mypkg",
		Version:      "1.0.0",
		Published:    true,
		Contracts:    map[string]string{},
		Dependencies: map[string]string{},
	}
}

// memStore keeps records in memory and counts writes.
type memStore struct {
	mu      sync.Mutex
	records map[string]*models.DeploymentRecord
	writes  int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.DeploymentRecord{}}
}

func (s *memStore) Load(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[network]; ok {
		return r, nil
	}
	r := models.NewDeploymentRecord(network)
	s.records[network] = r
	return r, nil
}

func (s *memStore) Write(ctx context.Context, record *models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Network] = record
	s.writes++
	return nil
}

// fakeBackend records calls and delegates to overridable funcs. The zero
// value succeeds everywhere with deterministic addresses.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	setImplementationFn   func(alias string) (string, error)
	unsetImplementationFn func(alias string) error
	getImplementationFn   func(name string) (string, error)
	getProxyImplFn        func(proxy string) (string, error)
	upgradeProxyFn        func(proxy, name string) (string, error)
	changeProxyAdminFn    func(proxy, admin string) error
	setDependencyFn       func(name, pkg, version string) error
	unsetDependencyFn     func(name string) (bool, error)
	ensureProxyAdminFn    func() (string, error)
	adminAddress          string
	createProxyFn         func(name string) (*models.ProxyInstance, error)
	creationAddress       string
	hasCodeFn             func(address string) (bool, error)
}

func (b *fakeBackend) record(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

func (b *fakeBackend) callCount(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (b *fakeBackend) FetchOrDeploy(ctx context.Context, version string) (string, error) {
	b.record("fetchOrDeploy %s", version)
	return "0xPackage", nil
}

func (b *fakeBackend) SetImplementation(ctx context.Context, artifact *models.Artifact, alias string) (string, error) {
	b.record("setImplementation %s", alias)
	if b.setImplementationFn != nil {
		return b.setImplementationFn(alias)
	}
	return "0xImpl" + alias, nil
}

func (b *fakeBackend) UnsetImplementation(ctx context.Context, alias string) error {
	b.record("unsetImplementation %s", alias)
	if b.unsetImplementationFn != nil {
		return b.unsetImplementationFn(alias)
	}
	return nil
}

func (b *fakeBackend) GetImplementation(ctx context.Context, alias string) (string, error) {
	b.record("getImplementation %s", alias)
	if b.getImplementationFn != nil {
		return b.getImplementationFn(alias)
	}
	return "0xImpl" + alias, nil
}

func (b *fakeBackend) CreateProxy(ctx context.Context, alias string, opts UpgradeOpts) (*models.ProxyInstance, error) {
	b.record("createProxy %s", alias)
	if b.createProxyFn != nil {
		return b.createProxyFn(alias)
	}
	return &models.ProxyInstance{Address: "0xProxy" + alias, Implementation: "0xImpl" + alias, Admin: "0xAdmin"}, nil
}

func (b *fakeBackend) CreateProxyWithSalt(ctx context.Context, alias string, salt string, opts UpgradeOpts) (*models.ProxyInstance, error) {
	b.record("createProxyWithSalt %s %s", alias, salt)
	if b.createProxyFn != nil {
		return b.createProxyFn(alias)
	}
	return &models.ProxyInstance{Address: "0xSalted" + alias, Implementation: "0xImpl" + alias, Admin: "0xAdmin"}, nil
}

func (b *fakeBackend) CreateMinimalProxy(ctx context.Context, alias string, opts UpgradeOpts) (*models.ProxyInstance, error) {
	b.record("createMinimalProxy %s", alias)
	if b.createProxyFn != nil {
		return b.createProxyFn(alias)
	}
	return &models.ProxyInstance{Address: "0xMinimal" + alias, Implementation: "0xImpl" + alias}, nil
}

func (b *fakeBackend) ProxyCreationAddress(ctx context.Context, salt string) (string, error) {
	b.record("proxyCreationAddress %s", salt)
	if b.creationAddress != "" {
		return b.creationAddress, nil
	}
	return "0xPredicted", nil
}

func (b *fakeBackend) HasCode(ctx context.Context, address string) (bool, error) {
	b.record("hasCode %s", address)
	if b.hasCodeFn != nil {
		return b.hasCodeFn(address)
	}
	return false, nil
}

func (b *fakeBackend) UpgradeProxy(ctx context.Context, proxyAddress string, alias string, opts UpgradeOpts) (string, error) {
	b.record("upgradeProxy %s %s", proxyAddress, alias)
	if b.upgradeProxyFn != nil {
		return b.upgradeProxyFn(proxyAddress, alias)
	}
	return "0xImpl" + alias, nil
}

func (b *fakeBackend) GetProxyImplementation(ctx context.Context, proxyAddress string) (string, error) {
	b.record("getProxyImplementation %s", proxyAddress)
	if b.getProxyImplFn != nil {
		return b.getProxyImplFn(proxyAddress)
	}
	return "0xOldImpl", nil
}

func (b *fakeBackend) ChangeProxyAdmin(ctx context.Context, proxyAddress string, newAdmin string) error {
	b.record("changeProxyAdmin %s %s", proxyAddress, newAdmin)
	if b.changeProxyAdminFn != nil {
		return b.changeProxyAdminFn(proxyAddress, newAdmin)
	}
	return nil
}

func (b *fakeBackend) TransferAdminOwnership(ctx context.Context, newOwner string) error {
	b.record("transferAdminOwnership %s", newOwner)
	return nil
}

func (b *fakeBackend) SetDependency(ctx context.Context, name, packageAddress, version string) error {
	b.record("setDependency %s %s %s", name, packageAddress, version)
	if b.setDependencyFn != nil {
		return b.setDependencyFn(name, packageAddress, version)
	}
	return nil
}

func (b *fakeBackend) UnsetDependency(ctx context.Context, name string) (bool, error) {
	b.record("unsetDependency %s", name)
	if b.unsetDependencyFn != nil {
		return b.unsetDependencyFn(name)
	}
	return true, nil
}

func (b *fakeBackend) EnsureProxyAdmin(ctx context.Context) (string, error) {
	b.record("ensureProxyAdmin")
	if b.ensureProxyAdminFn != nil {
		return b.ensureProxyAdminFn()
	}
	return "0xProxyAdmin", nil
}

func (b *fakeBackend) EnsureProxyFactory(ctx context.Context) (string, error) {
	b.record("ensureProxyFactory")
	return "0xProxyFactory", nil
}

func (b *fakeBackend) GetAdminAddress(ctx context.Context) (string, error) {
	b.record("getAdminAddress")
	if b.adminAddress != "" {
		return b.adminAddress, nil
	}
	return "0xSender", nil
}

var _ DeploymentBackend = (*fakeBackend)(nil)

// fakeArtifacts serves artifacts from maps.
type fakeArtifacts struct {
	contracts map[string]*models.Artifact
	libs      map[string]*models.Artifact
}

func (a *fakeArtifacts) GetArtifact(ctx context.Context, alias string) (*models.Artifact, error) {
	if art, ok := a.contracts[alias]; ok {
		return art, nil
	}
	return nil, fmt.Errorf("no artifact for %s", alias)
}

func (a *fakeArtifacts) GetLibraryArtifact(ctx context.Context, libName string) (*models.Artifact, error) {
	if art, ok := a.libs[libName]; ok {
		return art, nil
	}
	return nil, fmt.Errorf("no artifact for library %s", libName)
}

// fakeOracle returns canned warnings per contract name.
type fakeOracle struct {
	warnings map[string][]models.Warning
}

func (o *fakeOracle) Validate(ctx context.Context, artifact *models.Artifact, prior *models.ContractRecord) []models.Warning {
	return o.warnings[artifact.ContractName]
}

func (o *fakeOracle) BytecodeHash(artifact *models.Artifact) string {
	return artifact.BytecodeHash
}

// fakeRegistry serves dependency publications from a map keyed by name.
type fakeRegistry struct {
	pubs map[string]*models.DependencyPublication
}

func (r *fakeRegistry) GetPublication(ctx context.Context, name, network string) (*models.DependencyPublication, error) {
	if pub, ok := r.pubs[name]; ok {
		return pub, nil
	}
	return &models.DependencyPublication{Name: name, Network: network}, nil
}

func artifactFor(name, hash string, libs ...string) *models.Artifact {
	return &models.Artifact{
		ContractName: name,
		ABI:          []byte(`[]`),
		Bytecode:     "0x6080",
		BytecodeHash: hash,
		Libraries:    libs,
	}
}

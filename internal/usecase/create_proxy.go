package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// CreateProxyParams contains parameters for creating a proxy instance
type CreateProxyParams struct {
	Alias string
	Kind  models.ProxyKind
	// Salt selects deterministic creation. Only upgradeable proxies
	// support it.
	Salt string
	Init UpgradeOpts
}

// CreateProxyResult describes the created proxy
type CreateProxyResult struct {
	FullName string
	Proxy    *models.ProxyRecord
}

// CreateProxy deploys a new proxy instance for a manifest contract and
// records it.
type CreateProxy struct {
	cfg       *config.RuntimeConfig
	manifest  *models.Manifest
	store     RecordStore
	backend   DeploymentBackend
	artifacts ArtifactRepository
	sink      ProgressSink
	log       *slog.Logger
}

// NewCreateProxy creates a new CreateProxy use case
func NewCreateProxy(
	cfg *config.RuntimeConfig,
	manifest *models.Manifest,
	store RecordStore,
	backend DeploymentBackend,
	artifacts ArtifactRepository,
	sink ProgressSink,
	log *slog.Logger,
) *CreateProxy {
	return &CreateProxy{
		cfg:       cfg,
		manifest:  manifest,
		store:     store,
		backend:   backend,
		artifacts: artifacts,
		sink:      sink,
		log:       log,
	}
}

// Run creates one proxy instance and records it with its resolved package
// version, implementation and admin.
func (uc *CreateProxy) Run(ctx context.Context, params CreateProxyParams) (*CreateProxyResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("create-proxy requires a network: pass --network")
	}
	if _, ok := uc.manifest.Contracts[params.Alias]; !ok {
		return nil, domain.NotFoundErr{Kind: "contract", Identity: params.Alias}
	}
	kind := params.Kind
	if kind == "" {
		kind = models.ProxyKindUpgradeable
	}
	if kind == models.ProxyKindMinimal && params.Salt != "" {
		return nil, domain.ErrSaltedMinimalProxy
	}

	record, err := uc.store.Load(ctx, uc.cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	if err := uc.checkInitializer(ctx, uc.manifest.ContractName(params.Alias), params.Init); err != nil {
		return nil, err
	}

	if params.Salt != "" {
		if err := uc.checkSaltedAddress(ctx, params.Salt); err != nil {
			return nil, err
		}
	}

	uc.sink.OnProgress(ctx, ProgressEvent{Stage: "creating", Message: fmt.Sprintf("Creating %s proxy for %s", strings.ToLower(string(kind)), params.Alias), Spinner: true})

	// The alias is the identity the push registered with the directory, so
	// it keys the factory call and the proxy bucket alike.
	var instance *models.ProxyInstance
	switch {
	case kind == models.ProxyKindMinimal:
		instance, err = uc.backend.CreateMinimalProxy(ctx, params.Alias, params.Init)
	case params.Salt != "":
		instance, err = uc.backend.CreateProxyWithSalt(ctx, params.Alias, params.Salt, params.Init)
	default:
		instance, err = uc.backend.CreateProxy(ctx, params.Alias, params.Init)
	}
	if err != nil {
		return nil, domain.BackendOperationErr{Entity: params.Alias, Op: "create proxy", Err: err}
	}

	admin := instance.Admin
	if admin == "" {
		admin = record.ProxyAdminAddress()
	}
	proxy := &models.ProxyRecord{
		Address:        instance.Address,
		Version:        uc.manifest.Version,
		Implementation: instance.Implementation,
		Admin:          admin,
		Kind:           kind,
	}
	fullName := models.FullName(uc.manifest.Name, params.Alias)
	record.AddProxy(fullName, proxy)

	if err := uc.store.Write(ctx, record); err != nil {
		return nil, err
	}
	uc.log.Info("created proxy", "contract", fullName, "address", proxy.Address, "kind", kind)
	return &CreateProxyResult{FullName: fullName, Proxy: proxy}, nil
}

// checkInitializer warns, without blocking, when the contract exposes an
// initializer-like method that the creation does not call.
func (uc *CreateProxy) checkInitializer(ctx context.Context, contractName string, init UpgradeOpts) error {
	if init.InitMethod != "" {
		return nil
	}
	artifact, err := uc.artifacts.GetArtifact(ctx, contractName)
	if err != nil {
		return fmt.Errorf("failed to load artifact for contract %s: %w", contractName, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return fmt.Errorf("failed to parse ABI for contract %s: %w", contractName, err)
	}
	for name := range parsed.Methods {
		if strings.EqualFold(name, "initialize") {
			uc.sink.Info(fmt.Sprintf("%s exposes an initialize method that this creation does not call - the proxy will start uninitialized", contractName))
			break
		}
	}
	return nil
}

// checkSaltedAddress guards deterministic creation against an address that
// already holds code.
func (uc *CreateProxy) checkSaltedAddress(ctx context.Context, salt string) error {
	address, err := uc.backend.ProxyCreationAddress(ctx, salt)
	if err != nil {
		return fmt.Errorf("failed to predict salted proxy address: %w", err)
	}
	occupied, err := uc.backend.HasCode(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to check code at %s: %w", address, err)
	}
	if occupied {
		return fmt.Errorf("%w: address %s already has code, choose a different salt", domain.ErrAlreadyExists, address)
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
)

// TransferOwnershipParams names the new owner of the proxy admin contract.
type TransferOwnershipParams struct {
	NewOwner string
}

// TransferOwnership hands the proxy admin contract itself to a new owner.
// The admin contract's address does not change, so proxy records stay as
// they are; only the authority over the admin moves.
type TransferOwnership struct {
	cfg     *config.RuntimeConfig
	backend DeploymentBackend
	log     *slog.Logger
}

// NewTransferOwnership creates a new TransferOwnership use case
func NewTransferOwnership(cfg *config.RuntimeConfig, backend DeploymentBackend, log *slog.Logger) *TransferOwnership {
	return &TransferOwnership{cfg: cfg, backend: backend, log: log}
}

// Run transfers ownership of the admin contract.
func (uc *TransferOwnership) Run(ctx context.Context, params TransferOwnershipParams) error {
	if uc.cfg.Network == nil {
		return fmt.Errorf("transfer-ownership requires a network: pass --network")
	}
	if params.NewOwner == "" {
		return fmt.Errorf("%w: new owner address is required", domain.ErrInvalidAddress)
	}
	if err := uc.backend.TransferAdminOwnership(ctx, params.NewOwner); err != nil {
		return domain.BackendOperationErr{Entity: params.NewOwner, Op: "transfer admin ownership", Err: err}
	}
	uc.log.Info("transferred admin ownership", "newOwner", params.NewOwner)
	return nil
}

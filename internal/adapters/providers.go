package adapters

import (
	"github.com/google/wire"

	"github.com/upgradehq/upgr-cli/internal/adapters/artifacts"
	"github.com/upgradehq/upgr-cli/internal/adapters/ethereum"
	"github.com/upgradehq/upgr-cli/internal/adapters/record"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// RecordSet provides the file-backed deployment record store and the
// sibling-project dependency registry.
var RecordSet = wire.NewSet(
	record.NewFileStore,
	wire.Bind(new(usecase.RecordStore), new(*record.FileStore)),

	record.NewFileDependencyRegistry,
	wire.Bind(new(usecase.DependencyRegistry), new(*record.FileDependencyRegistry)),
)

// ArtifactSet provides the forge build output repository.
var ArtifactSet = wire.NewSet(
	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),
)

// EthereumSet provides the on-chain backend and the validation oracle.
var EthereumSet = wire.NewSet(
	ethereum.NewBackend,
	wire.Bind(new(usecase.DeploymentBackend), new(*ethereum.Backend)),

	ethereum.NewOracle,
	wire.Bind(new(usecase.ValidationOracle), new(*ethereum.Oracle)),
)

// AllAdapters includes all adapter sets.
var AllAdapters = wire.NewSet(
	RecordSet,
	ArtifactSet,
	EthereumSet,
)

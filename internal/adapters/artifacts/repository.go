package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// OutDir is the compiler output directory relative to the project root,
// laid out as out/<Contract>.sol/<Contract>.json.
const OutDir = "out"

// forgeArtifact mirrors the fields of a Foundry build artifact that the
// reconciler consumes.
type forgeArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object         string                               `json:"object"`
		LinkReferences map[string]map[string]json.RawMessage `json:"linkReferences"`
	} `json:"bytecode"`
	DeployedBytecode struct {
		Object string `json:"object"`
	} `json:"deployedBytecode"`
	StorageLayout json.RawMessage `json:"storageLayout"`
}

// Repository loads compiled artifacts from the build output directory and
// attaches oracle-computed bytecode hashes.
type Repository struct {
	root   string
	oracle usecase.ValidationOracle
}

// NewRepository creates an artifact repository for the project
func NewRepository(cfg *config.RuntimeConfig, oracle usecase.ValidationOracle) *Repository {
	return &Repository{root: cfg.ProjectRoot, oracle: oracle}
}

// GetArtifact loads the artifact for a contract name.
func (r *Repository) GetArtifact(ctx context.Context, contractName string) (*models.Artifact, error) {
	return r.load(contractName, false)
}

// GetLibraryArtifact loads the artifact for a solidity library name.
func (r *Repository) GetLibraryArtifact(ctx context.Context, libName string) (*models.Artifact, error) {
	return r.load(libName, true)
}

func (r *Repository) load(name string, isLibrary bool) (*models.Artifact, error) {
	path := filepath.Join(r.root, OutDir, name+".sol", name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact for %s (compile the project first): %w", name, err)
	}

	var raw forgeArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact for %s: %w", name, err)
	}

	artifact := &models.Artifact{
		ContractName:     name,
		ABI:              raw.ABI,
		Bytecode:         raw.Bytecode.Object,
		DeployedBytecode: raw.DeployedBytecode.Object,
		StorageLayout:    raw.StorageLayout,
		Libraries:        linkedLibraries(raw.Bytecode.LinkReferences),
		IsLibrary:        isLibrary,
	}
	artifact.BytecodeHash = r.oracle.BytecodeHash(artifact)
	artifact.BodyBytecodeHash = bodyHash(r.oracle, artifact)
	artifact.ConstructorCode = constructorCode(artifact)
	return artifact, nil
}

// linkedLibraries flattens forge link references, keyed by source file then
// library name, into the bare library names.
func linkedLibraries(refs map[string]map[string]json.RawMessage) []string {
	var names []string
	for _, libs := range refs {
		names = append(names, lo.Keys(libs)...)
	}
	return lo.Uniq(names)
}

// bodyHash hashes the runtime bytecode so upgrades can compare contract
// bodies independent of constructor arguments.
func bodyHash(oracle usecase.ValidationOracle, artifact *models.Artifact) string {
	body := &models.Artifact{ContractName: artifact.ContractName, Bytecode: artifact.DeployedBytecode}
	return oracle.BytecodeHash(body)
}

// constructorCode is the creation bytecode prefix that is not part of the
// deployed body.
func constructorCode(artifact *models.Artifact) string {
	body := strings.TrimPrefix(artifact.DeployedBytecode, "0x")
	if body != "" && strings.HasSuffix(artifact.Bytecode, body) {
		return strings.TrimSuffix(artifact.Bytecode, body)
	}
	return artifact.Bytecode
}

package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// DepsDir is where vendored dependency packages live, each carrying its own
// deployment records under .upgr/.
const DepsDir = "deps"

// FileDependencyRegistry resolves the published deployments of external
// packages from their vendored deployment record files.
type FileDependencyRegistry struct {
	projectRoot string
}

// NewFileDependencyRegistry creates a registry rooted at the project
func NewFileDependencyRegistry(cfg *config.RuntimeConfig) *FileDependencyRegistry {
	return &FileDependencyRegistry{projectRoot: cfg.ProjectRoot}
}

// GetPublication reads the dependency's record for a network and returns its
// package address and version. A dependency without a record, or without an
// on-chain package, yields an empty PackageAddress; the caller decides
// whether that is fatal.
func (r *FileDependencyRegistry) GetPublication(ctx context.Context, name, network string) (*models.DependencyPublication, error) {
	path := filepath.Join(r.projectRoot, DepsDir, name, ".upgr", network+".json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &models.DependencyPublication{Name: name, Network: network}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment record of dependency %s: %w", name, err)
	}

	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse deployment record of dependency %s: %w", name, err)
	}

	pub := &models.DependencyPublication{
		Name:    name,
		Network: network,
		Version: record.Version,
	}
	if record.Package != nil {
		pub.PackageAddress = record.Package.Address
	}
	return pub, nil
}

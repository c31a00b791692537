package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// loadManifestFile loads and parses upgr.toml from the project root.
func loadManifestFile(projectRoot string) (*config.ManifestFile, error) {
	manifestPath := filepath.Join(projectRoot, ManifestFileName)

	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not found in %s", ManifestFileName, projectRoot)
	}

	var mf config.ManifestFile
	if _, err := toml.DecodeFile(manifestPath, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFileName, err)
	}

	if mf.Contracts == nil {
		mf.Contracts = map[string]string{}
	}
	if mf.Dependencies == nil {
		mf.Dependencies = map[string]string{}
	}
	if mf.Networks == nil {
		mf.Networks = map[string]config.NetworkConfig{}
	}

	return &mf, nil
}

// ManifestProvider yields the manifest parsed alongside the runtime config.
func ManifestProvider(cfg *config.RuntimeConfig) (*models.Manifest, error) {
	return BuildManifest(cfg.Manifest)
}

// BuildManifest converts the parsed project file into the immutable manifest
// consumed by a reconciliation pass.
func BuildManifest(mf *config.ManifestFile) (*models.Manifest, error) {
	if mf.Project.Name == "" {
		return nil, fmt.Errorf("%w: [project] name is required", domain.ErrInvalidManifest)
	}
	if mf.Project.Version == "" {
		return nil, fmt.Errorf("%w: [project] version is required", domain.ErrInvalidManifest)
	}

	contracts := make(map[string]string, len(mf.Contracts))
	for alias, name := range mf.Contracts {
		contracts[alias] = name
	}
	dependencies := make(map[string]string, len(mf.Dependencies))
	for name, req := range mf.Dependencies {
		dependencies[name] = req
	}

	return &models.Manifest{
		Name:         mf.Project.Name,
		Version:      mf.Project.Version,
		Published:    mf.Project.Published,
		Contracts:    contracts,
		Dependencies: dependencies,
	}, nil
}

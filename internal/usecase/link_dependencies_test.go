package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

func TestLinkDependencies(t *testing.T) {
	ctx := context.Background()

	newFixture := func(pubs map[string]*models.DependencyPublication) (*LinkDependencies, *fakeBackend) {
		backend := &fakeBackend{}
		linker := NewLinkDependencies(backend, &fakeRegistry{pubs: pubs}, testLogger())
		return linker, backend
	}

	t.Run("satisfied recorded dependency is a no-op", func(t *testing.T) {
		linker, backend := newFixture(nil)
		record := models.NewDeploymentRecord("testnet")
		record.SetDependency("erc20", &models.DependencyRecord{PackageAddress: "0xPkg", Version: "1.2.5"})

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": "^1.2.0"}

		require.NoError(t, linker.Run(ctx, record, manifest))
		assert.Zero(t, backend.callCount("setDependency"))
	})

	t.Run("unsatisfied recorded dependency relinks from the publication", func(t *testing.T) {
		linker, backend := newFixture(map[string]*models.DependencyPublication{
			"erc20": {Name: "erc20", PackageAddress: "0xPkg2", Version: "1.3.0"},
		})
		record := models.NewDeploymentRecord("testnet")
		record.SetDependency("erc20", &models.DependencyRecord{PackageAddress: "0xPkg", Version: "1.1.0"})

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": "^1.2.0"}

		require.NoError(t, linker.Run(ctx, record, manifest))
		assert.Equal(t, 1, backend.callCount("setDependency erc20 0xPkg2 1.3.0"))

		dep, ok := record.GetDependency("erc20")
		require.True(t, ok)
		assert.Equal(t, "1.3.0", dep.Version)
		assert.Equal(t, "0xPkg2", dep.PackageAddress)
	})

	t.Run("unpublished dependency fails", func(t *testing.T) {
		linker, _ := newFixture(nil)
		record := models.NewDeploymentRecord("testnet")

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": "^1.2.0"}

		err := linker.Run(ctx, record, manifest)
		var unpublished domain.UnpublishedDependencyErr
		require.ErrorAs(t, err, &unpublished)
		assert.Equal(t, "erc20", unpublished.Dependency)
		assert.Equal(t, "testnet", unpublished.Network)
	})

	t.Run("publication that misses the requirement fails", func(t *testing.T) {
		linker, backend := newFixture(map[string]*models.DependencyPublication{
			"erc20": {Name: "erc20", PackageAddress: "0xPkg", Version: "2.0.0"},
		})
		record := models.NewDeploymentRecord("testnet")

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": "^1.2.0"}

		err := linker.Run(ctx, record, manifest)
		var mismatch domain.VersionMismatchErr
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "2.0.0", mismatch.Version)
		assert.Zero(t, backend.callCount("setDependency"))
	})

	t.Run("satisfying custom deploy relinks the project's own deployment", func(t *testing.T) {
		linker, backend := newFixture(nil)
		record := models.NewDeploymentRecord("testnet")
		record.SetDependency("erc20", &models.DependencyRecord{
			PackageAddress: "0xCustom",
			Version:        "1.4.0",
			CustomDeploy:   true,
		})

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": "^1.2.0"}

		require.NoError(t, linker.Run(ctx, record, manifest))
		assert.Equal(t, 1, backend.callCount("setDependency erc20 0xCustom 1.4.0"))
	})

	t.Run("custom deploy that misses the requirement fails", func(t *testing.T) {
		linker, _ := newFixture(map[string]*models.DependencyPublication{
			"erc20": {Name: "erc20", PackageAddress: "0xPkg", Version: "1.3.0"},
		})
		record := models.NewDeploymentRecord("testnet")
		record.SetDependency("erc20", &models.DependencyRecord{
			PackageAddress: "0xCustom",
			Version:        "0.9.0",
			CustomDeploy:   true,
		})

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": "^1.2.0"}

		err := linker.Run(ctx, record, manifest)
		var mismatch domain.VersionMismatchErr
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("undeclared recorded dependency is unlinked", func(t *testing.T) {
		linker, backend := newFixture(nil)
		record := models.NewDeploymentRecord("testnet")
		record.SetDependency("old", &models.DependencyRecord{PackageAddress: "0xOld", Version: "1.0.0"})

		require.NoError(t, linker.Run(ctx, record, testManifest()))
		assert.Equal(t, 1, backend.callCount("unsetDependency old"))
		_, ok := record.GetDependency("old")
		assert.False(t, ok)
	})

	t.Run("unlinking something not linked on chain still clears the record", func(t *testing.T) {
		linker, backend := newFixture(nil)
		backend.unsetDependencyFn = func(name string) (bool, error) { return false, nil }
		record := models.NewDeploymentRecord("testnet")
		record.SetDependency("old", &models.DependencyRecord{PackageAddress: "0xOld", Version: "1.0.0"})

		require.NoError(t, linker.Run(ctx, record, testManifest()))
		_, ok := record.GetDependency("old")
		assert.False(t, ok)
	})

	t.Run("empty requirement accepts any published version", func(t *testing.T) {
		linker, backend := newFixture(map[string]*models.DependencyPublication{
			"erc20": {Name: "erc20", PackageAddress: "0xPkg", Version: "3.1.4"},
		})
		record := models.NewDeploymentRecord("testnet")

		manifest := testManifest()
		manifest.Dependencies = map[string]string{"erc20": ""}

		require.NoError(t, linker.Run(ctx, record, manifest))
		assert.Equal(t, 1, backend.callCount("setDependency erc20 0xPkg 3.1.4"))
	})
}

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

func newUpgradeFixture(t *testing.T) (*UpgradeProxies, *memStore, *fakeBackend, *models.DeploymentRecord) {
	t.Helper()
	store := newMemStore()
	backend := &fakeBackend{}
	manifest := testManifest()
	manifest.Contracts = map[string]string{"Token": "Token"}
	uc := NewUpgradeProxies(testConfig(), manifest, store, backend, NopProgress{}, testLogger())

	record, err := store.Load(context.Background(), "testnet")
	require.NoError(t, err)
	record.SetProxyAdmin("0xProxyAdmin")
	return uc, store, backend, record
}

func TestUpgradeProxies(t *testing.T) {
	ctx := context.Background()

	t.Run("owned proxies upgrade and refresh their record", func(t *testing.T) {
		uc, _, backend, record := newUpgradeFixture(t)
		record.AddProxy("mypkg/Token", &models.ProxyRecord{
			Address: "0xP1", Version: "0.9.0", Implementation: "0xOldImpl", Admin: "0xProxyAdmin",
		})

		result, err := uc.Run(ctx, UpgradeProxiesParams{})
		require.NoError(t, err)
		require.Len(t, result.Upgraded, 1)
		assert.Empty(t, result.Skipped)
		assert.Equal(t, 1, backend.callCount("upgradeProxy 0xP1 Token"))

		proxies := record.GetProxies(domain.ProxyFilter{Address: "0xP1"})
		require.Len(t, proxies, 1)
		assert.Equal(t, "0xImplToken", proxies[0].Implementation)
		assert.Equal(t, "1.0.0", proxies[0].Version)
	})

	t.Run("proxy already on the target implementation only refreshes", func(t *testing.T) {
		uc, _, backend, record := newUpgradeFixture(t)
		backend.getProxyImplFn = func(proxy string) (string, error) { return "0xImplToken", nil }
		record.AddProxy("mypkg/Token", &models.ProxyRecord{
			Address: "0xP1", Version: "0.9.0", Implementation: "0xImplToken", Admin: "0xProxyAdmin",
		})

		result, err := uc.Run(ctx, UpgradeProxiesParams{})
		require.NoError(t, err)
		assert.Empty(t, result.Upgraded)
		require.Len(t, result.Refreshed, 1)
		assert.Equal(t, "0xP1", result.Refreshed[0].Address)
		assert.Zero(t, backend.callCount("upgradeProxy"))

		proxies := record.GetProxies(domain.ProxyFilter{Address: "0xP1"})
		assert.Equal(t, "1.0.0", proxies[0].Version)
	})

	t.Run("contract filter matches proxies of a renamed alias", func(t *testing.T) {
		store := newMemStore()
		backend := &fakeBackend{}
		manifest := testManifest()
		manifest.Contracts = map[string]string{"MyToken": "Token", "Vault": "Vault"}
		uc := NewUpgradeProxies(testConfig(), manifest, store, backend, NopProgress{}, testLogger())

		record, err := store.Load(ctx, "testnet")
		require.NoError(t, err)
		record.SetProxyAdmin("0xProxyAdmin")
		record.AddProxy("mypkg/MyToken", &models.ProxyRecord{
			Address: "0xP1", Version: "0.9.0", Implementation: "0xOldImpl", Admin: "0xProxyAdmin",
		})
		record.AddProxy("mypkg/Vault", &models.ProxyRecord{
			Address: "0xV1", Version: "0.9.0", Implementation: "0xOldImpl", Admin: "0xProxyAdmin",
		})

		result, err := uc.Run(ctx, UpgradeProxiesParams{Contract: "MyToken"})
		require.NoError(t, err)
		require.Len(t, result.Upgraded, 1)
		assert.Equal(t, "0xP1", result.Upgraded[0].Address)
		assert.Equal(t, 1, backend.callCount("getImplementation MyToken"))
		assert.Equal(t, 1, backend.callCount("upgradeProxy 0xP1 MyToken"))
		assert.Zero(t, backend.callCount("upgradeProxy 0xV1"))

		proxies := record.GetProxies(domain.ProxyFilter{Address: "0xP1"})
		require.Len(t, proxies, 1)
		assert.Equal(t, "0xImplMyToken", proxies[0].Implementation)
	})

	t.Run("foreign-owned proxies are skipped and never touched", func(t *testing.T) {
		uc, _, backend, record := newUpgradeFixture(t)
		record.AddProxy("mypkg/Token", &models.ProxyRecord{
			Address: "0xMine", Admin: "0xProxyAdmin", Version: "0.9.0",
		})
		record.AddProxy("mypkg/Token", &models.ProxyRecord{
			Address: "0xTheirs", Admin: "0xSomeoneElse", Version: "0.9.0",
		})

		result, err := uc.Run(ctx, UpgradeProxiesParams{})
		require.NoError(t, err)
		require.Len(t, result.Upgraded, 1)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "0xTheirs", result.Skipped[0].Address)
		assert.Zero(t, backend.callCount("upgradeProxy 0xTheirs"))

		proxies := record.GetProxies(domain.ProxyFilter{Address: "0xTheirs"})
		assert.Equal(t, "0.9.0", proxies[0].Version)
	})

	t.Run("proxy without an admin field is treated as owned", func(t *testing.T) {
		uc, _, _, record := newUpgradeFixture(t)
		record.AddProxy("mypkg/Token", &models.ProxyRecord{Address: "0xLegacy", Version: "0.9.0"})

		result, err := uc.Run(ctx, UpgradeProxiesParams{})
		require.NoError(t, err)
		assert.Len(t, result.Upgraded, 1)
	})

	t.Run("expected admin override changes the ownership gate", func(t *testing.T) {
		uc, _, _, record := newUpgradeFixture(t)
		record.AddProxy("mypkg/Token", &models.ProxyRecord{
			Address: "0xP1", Admin: "0xOtherAdmin", Version: "0.9.0",
		})

		result, err := uc.Run(ctx, UpgradeProxiesParams{ExpectedAdmin: "0xOtherAdmin"})
		require.NoError(t, err)
		assert.Len(t, result.Upgraded, 1)
	})

	t.Run("minimal proxies are never upgraded", func(t *testing.T) {
		uc, _, backend, record := newUpgradeFixture(t)
		record.AddProxy("mypkg/Token", &models.ProxyRecord{
			Address: "0xClone", Kind: models.ProxyKindMinimal, Version: "0.9.0",
		})

		result, err := uc.Run(ctx, UpgradeProxiesParams{})
		require.NoError(t, err)
		assert.Empty(t, result.Upgraded)
		assert.Zero(t, backend.callCount("upgradeProxy"))
	})

	t.Run("address filter with no match fails", func(t *testing.T) {
		uc, _, _, _ := newUpgradeFixture(t)
		_, err := uc.Run(ctx, UpgradeProxiesParams{Address: "0xMissing"})
		var notFound domain.NotFoundErr
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "proxy", notFound.Kind)
	})

	t.Run("one failing upgrade does not abandon its siblings", func(t *testing.T) {
		uc, _, backend, record := newUpgradeFixture(t)
		backend.upgradeProxyFn = func(proxy, name string) (string, error) {
			if proxy == "0xBad" {
				return "", errors.New("revert")
			}
			return "0xImpl" + name, nil
		}
		record.AddProxy("mypkg/Token", &models.ProxyRecord{Address: "0xBad", Admin: "0xProxyAdmin", Version: "0.9.0"})
		record.AddProxy("mypkg/Token", &models.ProxyRecord{Address: "0xGood", Admin: "0xProxyAdmin", Version: "0.9.0"})

		_, err := uc.Run(ctx, UpgradeProxiesParams{})
		var batchErr *domain.BatchErr
		require.ErrorAs(t, err, &batchErr)
		require.Len(t, batchErr.Failures, 1)
		assert.Contains(t, err.Error(), "0xBad")

		// The sibling still ran and its record entry moved.
		assert.Equal(t, 1, backend.callCount("upgradeProxy 0xGood"))
		proxies := record.GetProxies(domain.ProxyFilter{Address: "0xGood"})
		assert.Equal(t, "0xImplToken", proxies[0].Implementation)
	})
}

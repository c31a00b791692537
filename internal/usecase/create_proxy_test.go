package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgradehq/upgr-cli/internal/domain"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

func newCreateProxyFixture(t *testing.T) (*CreateProxy, *memStore, *fakeBackend) {
	t.Helper()
	store := newMemStore()
	backend := &fakeBackend{}
	manifest := testManifest()
	manifest.Contracts = map[string]string{"Token": "Token"}
	arts := &fakeArtifacts{
		contracts: map[string]*models.Artifact{"Token": artifactFor("Token", "hashT")},
	}
	uc := NewCreateProxy(testConfig(), manifest, store, backend, arts, NopProgress{}, testLogger())
	return uc, store, backend
}

func TestCreateProxy(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an upgradeable proxy by default", func(t *testing.T) {
		uc, store, backend := newCreateProxyFixture(t)
		result, err := uc.Run(ctx, CreateProxyParams{Alias: "Token"})
		require.NoError(t, err)
		assert.Equal(t, "mypkg/Token", result.FullName)
		assert.Equal(t, models.ProxyKindUpgradeable, result.Proxy.Kind)
		assert.Equal(t, "0xProxyToken", result.Proxy.Address)
		assert.Equal(t, "0xImplToken", result.Proxy.Implementation)
		assert.Equal(t, "0xAdmin", result.Proxy.Admin)
		assert.Equal(t, "1.0.0", result.Proxy.Version)
		assert.Equal(t, 1, backend.callCount("createProxy Token"))
		assert.Equal(t, 1, store.writes)

		record, _ := store.Load(ctx, "testnet")
		proxies := record.GetProxies(domain.ProxyFilter{Package: "mypkg", Contract: "Token"})
		require.Len(t, proxies, 1)
	})

	t.Run("renamed alias keys the bucket and the factory call", func(t *testing.T) {
		store := newMemStore()
		backend := &fakeBackend{}
		manifest := testManifest()
		manifest.Contracts = map[string]string{"MyToken": "Token"}
		arts := &fakeArtifacts{
			contracts: map[string]*models.Artifact{"Token": artifactFor("Token", "hashT")},
		}
		uc := NewCreateProxy(testConfig(), manifest, store, backend, arts, NopProgress{}, testLogger())

		result, err := uc.Run(ctx, CreateProxyParams{Alias: "MyToken"})
		require.NoError(t, err)
		assert.Equal(t, "mypkg/MyToken", result.FullName)
		assert.Equal(t, 1, backend.callCount("createProxy MyToken"))

		// The proxy is findable under the alias the caller knows.
		record, _ := store.Load(ctx, "testnet")
		proxies := record.GetProxies(domain.ProxyFilter{Package: "mypkg", Contract: "MyToken"})
		require.Len(t, proxies, 1)
	})

	t.Run("unknown alias fails", func(t *testing.T) {
		uc, _, _ := newCreateProxyFixture(t)
		_, err := uc.Run(ctx, CreateProxyParams{Alias: "Nope"})
		var notFound domain.NotFoundErr
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "contract", notFound.Kind)
	})

	t.Run("salted minimal proxy is rejected", func(t *testing.T) {
		uc, _, backend := newCreateProxyFixture(t)
		_, err := uc.Run(ctx, CreateProxyParams{Alias: "Token", Kind: models.ProxyKindMinimal, Salt: "s"})
		assert.ErrorIs(t, err, domain.ErrSaltedMinimalProxy)
		assert.Empty(t, backend.calls)
	})

	t.Run("salted creation checks the predicted address for code", func(t *testing.T) {
		uc, _, backend := newCreateProxyFixture(t)
		result, err := uc.Run(ctx, CreateProxyParams{Alias: "Token", Salt: "seed"})
		require.NoError(t, err)
		assert.Equal(t, 1, backend.callCount("proxyCreationAddress seed"))
		assert.Equal(t, 1, backend.callCount("createProxyWithSalt Token seed"))
		assert.Equal(t, "0xSaltedToken", result.Proxy.Address)
	})

	t.Run("salt whose address already has code fails", func(t *testing.T) {
		uc, _, backend := newCreateProxyFixture(t)
		backend.hasCodeFn = func(address string) (bool, error) { return true, nil }
		_, err := uc.Run(ctx, CreateProxyParams{Alias: "Token", Salt: "seed"})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.Zero(t, backend.callCount("createProxyWithSalt"))
	})

	t.Run("minimal proxy records no admin", func(t *testing.T) {
		uc, _, _ := newCreateProxyFixture(t)
		result, err := uc.Run(ctx, CreateProxyParams{Alias: "Token", Kind: models.ProxyKindMinimal})
		require.NoError(t, err)
		assert.Equal(t, models.ProxyKindMinimal, result.Proxy.Kind)
		assert.Empty(t, result.Proxy.Admin)
	})

	t.Run("admin falls back to the record's proxy admin", func(t *testing.T) {
		uc, store, backend := newCreateProxyFixture(t)
		backend.createProxyFn = func(name string) (*models.ProxyInstance, error) {
			return &models.ProxyInstance{Address: "0xP", Implementation: "0xI"}, nil
		}
		record, _ := store.Load(ctx, "testnet")
		record.SetProxyAdmin("0xProxyAdmin")

		result, err := uc.Run(ctx, CreateProxyParams{Alias: "Token"})
		require.NoError(t, err)
		assert.Equal(t, "0xProxyAdmin", result.Proxy.Admin)
	})
}

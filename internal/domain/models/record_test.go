package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgradehq/upgr-cli/internal/domain"
)

func TestDeploymentRecordContracts(t *testing.T) {
	t.Run("set get unset roundtrip", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		require.NoError(t, r.SetContract("Token", &ContractRecord{Address: "0xA", LocalBytecodeHash: "h1"}))

		c, ok := r.GetContract("Token")
		require.True(t, ok)
		assert.Equal(t, "0xA", c.Address)

		require.NoError(t, r.UnsetContract("Token"))
		_, ok = r.GetContract("Token")
		assert.False(t, ok)
	})

	t.Run("frozen record rejects contract mutations", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		require.NoError(t, r.SetContract("Token", &ContractRecord{Address: "0xA"}))
		r.Frozen = true

		err := r.SetContract("Token", &ContractRecord{Address: "0xB"})
		var frozen domain.FrozenProjectErr
		require.ErrorAs(t, err, &frozen)
		assert.Equal(t, "Token", frozen.Alias)

		assert.Error(t, r.UnsetContract("Token"))
		assert.Error(t, r.SetSolidityLib("MathLib", &SolidityLibRecord{}))
		assert.Error(t, r.UnsetSolidityLib("MathLib"))

		// The frozen entry is untouched.
		c, _ := r.GetContract("Token")
		assert.Equal(t, "0xA", c.Address)
	})

	t.Run("HasSameBytecode compares against the recorded hash", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		require.NoError(t, r.SetContract("Token", &ContractRecord{LocalBytecodeHash: "h1"}))

		assert.True(t, r.HasSameBytecode("Token", &Artifact{BytecodeHash: "h1"}))
		assert.False(t, r.HasSameBytecode("Token", &Artifact{BytecodeHash: "h2"}))
		assert.False(t, r.HasSameBytecode("Unknown", &Artifact{BytecodeHash: "h1"}))
	})

	t.Run("ClearContracts drops contracts but keeps proxies", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		require.NoError(t, r.SetContract("Token", &ContractRecord{}))
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP"})

		r.ClearContracts()
		assert.Empty(t, r.ContractAliases())
		assert.Len(t, r.GetProxies(domain.ProxyFilter{}), 1)
	})
}

func TestDeploymentRecordProxies(t *testing.T) {
	t.Run("AddProxy defaults the kind to upgradeable", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP"})

		proxies := r.GetProxies(domain.ProxyFilter{Kind: string(ProxyKindUpgradeable)})
		require.Len(t, proxies, 1)
		assert.Equal(t, ProxyKindUpgradeable, proxies[0].Kind)
	})

	t.Run("GetProxies filters by package contract address and kind", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP1"})
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP2", Kind: ProxyKindMinimal})
		r.AddProxy("mypkg/Vault", &ProxyRecord{Address: "0xP3"})
		r.AddProxy("otherpkg/Token", &ProxyRecord{Address: "0xP4"})

		assert.Len(t, r.GetProxies(domain.ProxyFilter{}), 4)
		assert.Len(t, r.GetProxies(domain.ProxyFilter{Package: "mypkg"}), 3)
		assert.Len(t, r.GetProxies(domain.ProxyFilter{Package: "mypkg", Contract: "Token"}), 2)
		assert.Len(t, r.GetProxies(domain.ProxyFilter{Package: "mypkg", Kind: string(ProxyKindUpgradeable)}), 2)

		byAddress := r.GetProxies(domain.ProxyFilter{Address: "0xP3"})
		require.Len(t, byAddress, 1)
		assert.Equal(t, "0xP3", byAddress[0].Address)
	})

	t.Run("RemoveProxy drops an empty bucket", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP1"})
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP2"})

		require.NoError(t, r.RemoveProxy("mypkg/Token", "0xP1"))
		assert.Len(t, r.GetProxies(domain.ProxyFilter{}), 1)

		require.NoError(t, r.RemoveProxy("mypkg/Token", "0xP2"))
		assert.NotContains(t, r.Proxies, "mypkg/Token")

		err := r.RemoveProxy("mypkg/Token", "0xP2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UpdateProxy surfaces a missing proxy", func(t *testing.T) {
		r := NewDeploymentRecord("testnet")
		r.AddProxy("mypkg/Token", &ProxyRecord{Address: "0xP1", Version: "1.0.0"})

		require.NoError(t, r.UpdateProxy("mypkg/Token", "0xP1", func(p *ProxyRecord) {
			p.Version = "1.1.0"
		}))
		proxies := r.GetProxies(domain.ProxyFilter{Address: "0xP1"})
		assert.Equal(t, "1.1.0", proxies[0].Version)

		err := r.UpdateProxy("mypkg/Token", "0xMissing", func(p *ProxyRecord) {})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("OwnedBy treats a missing admin as owned", func(t *testing.T) {
		assert.True(t, (&ProxyRecord{}).OwnedBy("0xAdmin"))
		assert.True(t, (&ProxyRecord{Admin: "0xAdmin"}).OwnedBy("0xAdmin"))
		assert.False(t, (&ProxyRecord{Admin: "0xOther"}).OwnedBy("0xAdmin"))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("nil maps become empty", func(t *testing.T) {
		r := &DeploymentRecord{}
		r.Normalize()
		assert.NotNil(t, r.Contracts)
		assert.NotNil(t, r.SolidityLibs)
		assert.NotNil(t, r.Proxies)
		assert.NotNil(t, r.Dependencies)
	})

	t.Run("proxies without a kind become upgradeable", func(t *testing.T) {
		r := &DeploymentRecord{
			Proxies: map[string][]*ProxyRecord{
				"mypkg/Token": {{Address: "0xP"}, {Address: "0xQ", Kind: ProxyKindMinimal}},
			},
		}
		r.Normalize()
		assert.Equal(t, ProxyKindUpgradeable, r.Proxies["mypkg/Token"][0].Kind)
		assert.Equal(t, ProxyKindMinimal, r.Proxies["mypkg/Token"][1].Kind)
	})
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "mypkg/Token", FullName("mypkg", "Token"))
}

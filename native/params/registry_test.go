package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/crypto"
	nativecommon "launchpad/native/common"
	"launchpad/storage"
)

func testAddr(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.LPDPrefix, raw)
}

func TestRegistryPauses(t *testing.T) {
	registry := NewRegistry(storage.NewMemDB())

	require.False(t, registry.IsPaused("presale"))
	require.NoError(t, registry.SetPaused("presale", true))
	require.True(t, registry.IsPaused("presale"))
	require.False(t, registry.IsPaused("farm"))

	require.NoError(t, registry.SetPaused("presale", false))
	require.False(t, registry.IsPaused("presale"))

	require.Error(t, registry.SetPaused("", true))
}

func TestRegistryCapabilities(t *testing.T) {
	registry := NewRegistry(storage.NewMemDB())
	admin := testAddr(0x01)
	stranger := testAddr(0x02)

	require.False(t, registry.HasCapability(admin, "presale.admin"))
	require.NoError(t, registry.Grant(admin, "presale.admin"))
	require.True(t, registry.HasCapability(admin, "presale.admin"))
	require.False(t, registry.HasCapability(stranger, "presale.admin"))
	require.False(t, registry.HasCapability(admin, "farm.admin"))

	require.NoError(t, registry.Revoke(admin, "presale.admin"))
	require.False(t, registry.HasCapability(admin, "presale.admin"))

	require.Error(t, registry.Grant(admin, ""))
}

// The registry must satisfy both engine collaborator interfaces.
var (
	_ nativecommon.PauseView      = (*Registry)(nil)
	_ nativecommon.CapabilityView = (*Registry)(nil)
)

package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigGate_LocksOnceWhenComplete(t *testing.T) {
	g := NewConfigGate()
	assert.Equal(t, GateCollecting, g.State())
	assert.Equal(t, []string{KeyURL, KeyUsername, KeyPassword}, g.Missing())

	_, locked := g.Offer(KeyURL, "http://hc2/api/")
	assert.False(t, locked)
	_, locked = g.Offer(KeyUsername, "admin")
	assert.False(t, locked)
	assert.Equal(t, []string{KeyPassword}, g.Missing())

	settings, locked := g.Offer(KeyPassword, "secret")
	require.True(t, locked)
	assert.Equal(t, HubSettings{URL: "http://hc2/api/", Username: "admin", Password: "secret"}, settings)
	assert.Equal(t, GateLocked, g.State())
	assert.Empty(t, g.Missing())
}

func TestConfigGate_ValuesImmutableAfterLock(t *testing.T) {
	g := NewConfigGate()
	g.Offer(KeyURL, "http://hc2/api/")
	g.Offer(KeyUsername, "admin")
	_, locked := g.Offer(KeyPassword, "secret")
	require.True(t, locked)

	for _, kv := range [][2]string{
		{KeyURL, "http://other/api/"},
		{KeyPassword, "changed"},
		{KeyPassword, ""},
		{KeyUsername, "admin"},
	} {
		_, again := g.Offer(kv[0], kv[1])
		assert.False(t, again, "offer %s after lock", kv[0])
	}

	settings, ok := g.Settings()
	require.True(t, ok)
	assert.Equal(t, "http://hc2/api/", settings.URL)
	assert.Equal(t, "secret", settings.Password)
}

func TestConfigGate_EmptyValueDeletesWhileCollecting(t *testing.T) {
	g := NewConfigGate()
	g.Offer(KeyURL, "http://hc2/api/")
	g.Offer(KeyUsername, "admin")
	g.Offer(KeyUsername, "")

	_, locked := g.Offer(KeyPassword, "secret")
	assert.False(t, locked)
	assert.Equal(t, []string{KeyUsername}, g.Missing())

	_, locked = g.Offer(KeyUsername, "admin")
	assert.True(t, locked)
}

func TestConfigGate_UnrelatedKeysDoNotLock(t *testing.T) {
	g := NewConfigGate()
	_, locked := g.Offer("poll", "fast")
	assert.False(t, locked)

	_, ok := g.Settings()
	assert.False(t, ok)
}

func TestGateState_String(t *testing.T) {
	assert.Equal(t, "collecting", GateCollecting.String())
	assert.Equal(t, "locked", GateLocked.String())
	assert.Equal(t, "GateState(7)", GateState(7).String())
}

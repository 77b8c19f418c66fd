package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidateDefaults(t *testing.T) {
	p := &Profile{Data: t.TempDir()}
	require.NoError(t, p.Validate())

	assert.Equal(t, "demo", p.Mode)
	assert.Equal(t, "0.0.0.0", p.Addr)
	assert.Equal(t, 8081, p.Port)
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, 1000, p.CacheCapacity)
	assert.Equal(t, time.Minute, p.CacheCleanupInterval)
	assert.Contains(t, p.DSN, "vendora_demo.db")
}

func TestProfileValidateDriver(t *testing.T) {
	t.Run("UnsupportedDriver", func(t *testing.T) {
		p := &Profile{Driver: "oracle", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("PostgresRequiresDSN", func(t *testing.T) {
		p := &Profile{Driver: "postgres", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("PostgresWithDSN", func(t *testing.T) {
		p := &Profile{Driver: "postgres", DSN: "postgres://vendora@localhost/vendora", Data: t.TempDir()}
		assert.NoError(t, p.Validate())
	})
}

func TestProfileFromEnv(t *testing.T) {
	t.Setenv("VENDORA_MODE", "dev")
	t.Setenv("VENDORA_PORT", "9090")
	t.Setenv("VENDORA_CACHE_CAPACITY", "250")
	t.Setenv("VENDORA_CACHE_CLEANUP_INTERVAL", "30s")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, 250, p.CacheCapacity)
	assert.Equal(t, 30*time.Second, p.CacheCleanupInterval)
	assert.True(t, p.IsDev())
}

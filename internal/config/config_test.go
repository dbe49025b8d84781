package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 50, cfg.Feed.MaxEvents)
	assert.Equal(t, uint64(10000), cfg.Feed.LookbackBlocks)
	assert.Equal(t, uint64(45000), cfg.Feed.ChunkSize)
	assert.Equal(t, 2*time.Second, cfg.Feed.AvgBlockTime)
	assert.Equal(t, "molotov", cfg.Database.Postgres.Database)
	assert.Equal(t, "https://gateway.pinata.cloud", cfg.Pinning.GatewayURL)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("FEED_MAX_EVENTS", "25")
	t.Setenv("FEED_CHUNK_SIZE", "1000")
	t.Setenv("FEED_AVG_BLOCK_TIME", "12s")
	t.Setenv("CONTRACT_ADDRESS", "0x1234567890abcdef1234567890abcdef12345678")
	t.Setenv("CONTRACT_DEPLOYMENT_BLOCK", "42")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Feed.MaxEvents)
	assert.Equal(t, uint64(1000), cfg.Feed.ChunkSize)
	assert.Equal(t, 12*time.Second, cfg.Feed.AvgBlockTime)
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", cfg.Chain.ContractAddress)
	assert.Equal(t, uint64(42), cfg.Chain.DeploymentBlock)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FEED_MAX_EVENTS", "not-a-number")
	t.Setenv("CACHE_TTL", "garbage")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Feed.MaxEvents)
	assert.Equal(t, 20*time.Second, cfg.Cache.TTL)
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, "postgres", config.Storage.Mode)
	assert.Equal(t, "nats", config.Broadcast.Mode)
	assert.Equal(t, "nats://localhost:4222", config.Broadcast.NATSURL)
	assert.Equal(t, 5, config.Sweep.IntervalMinutes)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("STORAGE_MODE", "memory")
	t.Setenv("BROADCAST_MODE", "log")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "1")

	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", config.Server.Addr)
	assert.Equal(t, "memory", config.Storage.Mode)
	assert.Equal(t, "log", config.Broadcast.Mode)
	assert.Equal(t, 1, config.Sweep.IntervalMinutes)
}

func TestLoadConfigYAMLBeatsEnv(t *testing.T) {
	t.Setenv("STORAGE_MODE", "postgres")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"storage:\n  mode: memory\nsweep:\n  interval_minutes: 10\n",
	), 0o600))

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Storage.Mode)
	assert.Equal(t, 10, config.Sweep.IntervalMinutes)
}

func TestLoadConfigRejectsBadModes(t *testing.T) {
	t.Setenv("STORAGE_MODE", "sqlite")
	_, err := loadConfig("")
	require.Error(t, err)
}

func TestLoadConfigRejectsBadSweepInterval(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL_MINUTES", "-3")
	_, err := loadConfig("")
	require.Error(t, err)
}

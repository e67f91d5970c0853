package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vehicles: 30\nseed: 7\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Vehicles)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, DefaultConfig().Roads, cfg.Roads)
	assert.Equal(t, DefaultConfig().Horizon, cfg.Horizon)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roads: 1\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()

	tweak := func(f func(*Config)) Config {
		c := base
		f(&c)
		return c
	}

	assert.Error(t, tweak(func(c *Config) { c.Roads = 1 }).Validate())
	assert.Error(t, tweak(func(c *Config) { c.LaneLength = 10 }).Validate())
	assert.Error(t, tweak(func(c *Config) { c.Vehicles = -1 }).Validate())
	assert.Error(t, tweak(func(c *Config) { c.BusStops = 1 }).Validate())
	assert.Error(t, tweak(func(c *Config) { c.Horizon = 0 }).Validate())
	assert.Error(t, tweak(func(c *Config) { c.Bucket = -5 }).Validate())

	// No buses means no stop requirement.
	assert.NoError(t, tweak(func(c *Config) { c.Buses = 0; c.BusStops = 0 }).Validate())
}

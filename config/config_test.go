package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 20, cfg.Optimizer.MaxPlaces)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  cache_ttl_seconds: 60
optimizer:
  fairness_weight: 0.8
  efficiency_weight: 0.2
  max_places: 10
  daily_hours: 10
  day_start_hour: 9
  walk_max_km: 1.5
  transit_max_km: 25
  flight_min_km: 250
  min_buffer_minutes: 5
  max_buffer_minutes: 20
  normalize_timeout: 5s
  select_timeout: 10s
  route_timeout: 30s
  assemble_timeout: 10s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0.8, cfg.Optimizer.FairnessWeight)
	assert.Equal(t, 10, cfg.Optimizer.MaxPlaces)
	assert.Equal(t, 30*time.Second, cfg.Optimizer.RouteTimeout.Std())
}

func TestLoad_EnvOverridesDSN(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://env-wins")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-wins", cfg.Database.DSN)
}

func TestLoad_RejectsInvalidOptimizerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
optimizer:
  fairness_weight: 3.0
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

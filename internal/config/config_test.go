package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.prospeo.io", cfg.Provider.BaseURL)
	assert.Empty(t, cfg.Provider.Key)
	assert.Equal(t, 1000, cfg.Engine.RequestIntervalMS)
	assert.Equal(t, time.Second, cfg.Engine.RequestInterval())
	assert.Equal(t, 2, cfg.Jobs.RetentionHours)
	assert.Equal(t, 2*time.Hour, cfg.Jobs.Retention())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
provider:
  key: pk-test
engine:
  request_interval_ms: 250
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pk-test", cfg.Provider.Key)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.RequestInterval())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Jobs.RetentionHours)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADFLOW_LOG_LEVEL", "warn")
	t.Setenv("LEADFLOW_PROVIDER_KEY", "pk-env")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "pk-env", cfg.Provider.Key)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADFLOW_SERVER_PORT", "3000")
	t.Setenv("LEADFLOW_PROVIDER_KEY", "pk-env-only")
	t.Setenv("LEADFLOW_COLUMNS_OVERRIDES_PATH", "overrides.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	// Keys whose default is the zero value must still be reachable
	// from the environment alone.
	assert.Equal(t, "pk-env-only", cfg.Provider.Key)
	assert.Equal(t, "overrides.yaml", cfg.Columns.OverridesPath)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

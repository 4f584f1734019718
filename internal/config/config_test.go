package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServer.Addr, cfg.Server.Addr)
	assert.Equal(t, DefaultDistance.Timeout, cfg.Distance.Timeout)
	assert.Equal(t, 20, cfg.Matching.TransactionLimit)
	assert.False(t, cfg.Matching.ConserveBalances)
	assert.True(t, filepath.IsAbs(cfg.Database.Path))
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/crops.db
matching:
  conserve_balances: true
distance:
  timeout: 3s
server:
  allowed_origins: ["https://a.example"]
`), 0o644))

	t.Setenv("CROPFLOW_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/crops.db", cfg.Database.Path)
	assert.True(t, cfg.Matching.ConserveBalances)
	assert.Equal(t, 3*time.Second, cfg.Distance.Timeout)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "maps-key", cfg.Distance.MapsAPIKey)
	assert.Equal(t, []string{"https://a.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matching: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CROPFLOW_TEST_A=from-file\nCROPFLOW_TEST_B=from-file\n"), 0o644))
	t.Setenv("CROPFLOW_TEST_A", "from-env")
	t.Setenv("CROPFLOW_TEST_B", "")
	require.NoError(t, os.Unsetenv("CROPFLOW_TEST_B"))

	require.NoError(t, LoadEnvFiles(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-env", os.Getenv("CROPFLOW_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("CROPFLOW_TEST_B"))
	t.Cleanup(func() { _ = os.Unsetenv("CROPFLOW_TEST_B") })
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), expandPath("~/x/y"))
	assert.Equal(t, "/abs", expandPath("/abs"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Vaults.PageSize)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Empty(t, cfg.Chain.RPCURL)
	assert.Equal(t, "vaultscope:snapshot", cfg.Redis.SnapshotKey)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte(`
server:
  port: "9090"
vaults:
  page_size: 10
  allow_list:
    - "0x5f18C75AbDAe578b483E5F43f12a39cF75b973a9"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("VAULTSCOPE_CHAIN_RPC_URL", "http://localhost:8545")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Vaults.PageSize)
	assert.Equal(t, []string{"0x5f18C75AbDAe578b483E5F43f12a39cF75b973a9"}, cfg.Vaults.AllowList)
	assert.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
}

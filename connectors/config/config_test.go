package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	dconfig "emissions-stats/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
log:
  level: debug
columns:
  company: ["organisation"]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "20M", c.Server.MaxUpload)
	assert.Equal(t, "./data/emissions.db", c.Storage.Path)
	assert.Equal(t, []string{"organisation"}, c.Columns["company"])
	assert.Contains(t, c.Columns["sector"], "setor")
	assert.Equal(t, slog.LevelDebug, LogLevel(c))
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnvMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yml"))
	c, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, slog.LevelInfo, LogLevel(c))
}

func TestLoadRejectsBadUploadLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  max_upload: twenty megs\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.max_upload")
}

func TestValidate(t *testing.T) {
	c := dconfig.Default()
	assert.NoError(t, Validate(c))
	c.Server.MaxUpload = ""
	assert.NoError(t, Validate(c))
	c.Server.MaxUpload = "12Q"
	assert.Error(t, Validate(c))
}

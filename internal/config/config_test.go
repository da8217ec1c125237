package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/gorepl/internal/history"
	"github.com/itsmostafa/gorepl/internal/workspace"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "WARN", cfg.Logger.LogLevel)
	assert.Equal(t, history.MaxLength, cfg.History.Limit)
	assert.Equal(t, ByteSize(workspace.DefaultMaxFileSize), cfg.Workspace.MaxFileSize)
	assert.Equal(t, "_", cfg.REPL.ResultName)
	assert.True(t, cfg.REPL.Color)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gorepl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: DEBUG
  format: json
history:
  path: ""
  limit: 20
workspace:
  dir: /tmp/ws
  max_file_size: 2 MiB
repl:
  repr_limit: 80
  color: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logger.LogLevel)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "gorepl", cfg.Logger.StaticFields["@service"])
	assert.Empty(t, cfg.History.Path)
	assert.Equal(t, 20, cfg.History.Limit)
	assert.Equal(t, "/tmp/ws", cfg.Workspace.Dir)
	assert.Equal(t, ByteSize(2*1024*1024), cfg.Workspace.MaxFileSize)
	assert.Equal(t, 80, cfg.REPL.ReprLimit)
	assert.False(t, cfg.REPL.Color)
	assert.Equal(t, "_", cfg.REPL.ResultName)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workspace:\n  max_file_size: lots\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"GOREPL_LOG_LEVEL":     "INFO",
		"GOREPL_HISTORY_PATH":  "/tmp/h.db",
		"GOREPL_HISTORY_LIMIT": "5",
		"GOREPL_MAX_FILE_SIZE": "512 KiB",
		"GOREPL_REPR_LIMIT":    "50",
		"GOREPL_COLOR":         "false",
	})))

	assert.Equal(t, "INFO", cfg.Logger.LogLevel)
	assert.Equal(t, "/tmp/h.db", cfg.History.Path)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, ByteSize(512*1024), cfg.Workspace.MaxFileSize)
	assert.Equal(t, 50, cfg.REPL.ReprLimit)
	assert.False(t, cfg.REPL.Color)
}

func TestApplyEnvNoColor(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{"NO_COLOR": ""})))
	assert.False(t, cfg.REPL.Color)
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"GOREPL_HISTORY_LIMIT": "many",
		"GOREPL_COLOR":         "sometimes",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOREPL_HISTORY_LIMIT")
	assert.Contains(t, err.Error(), "GOREPL_COLOR")
	assert.Equal(t, history.MaxLength, cfg.History.Limit)
}

func TestWorkerConfig(t *testing.T) {
	cfg := Default()
	cfg.REPL.ReprLimit = 42
	cfg.REPL.MaxCallStackSize = 500
	cfg.Workspace.MaxFileSize = 10

	w := cfg.Worker()
	assert.Equal(t, 42, w.ReprLimit)
	assert.Equal(t, 500, w.Session.MaxCallStackSize)
	assert.Equal(t, int64(10), w.MaxFileSize)
	assert.Equal(t, "_", w.Session.ResultName)
}

func TestByteSizeString(t *testing.T) {
	assert.Equal(t, "1.0 MiB", ByteSize(1024*1024).String())
}

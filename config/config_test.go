package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	logger, _ := test.NewNullLogger()

	cfg, err := LoadConfig(logger)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StoreFile, cfg.TokenStore)
	assert.Equal(t, "session.json", filepath.Base(cfg.TokenPath))
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TODO_API_URL", "https://todo.example.com/api/")
	t.Setenv("TODO_REQUEST_TIMEOUT", "3s")
	t.Setenv("TODO_TOKEN_STORE", "SQLite")
	t.Setenv("TODO_TOKEN_PATH", "/tmp/x.db")
	logger, _ := test.NewNullLogger()

	cfg, err := LoadConfig(logger)
	require.NoError(t, err)
	assert.Equal(t, "https://todo.example.com/api", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StoreSQLite, cfg.TokenStore)
	assert.Equal(t, "/tmp/x.db", cfg.TokenPath)
}

func TestLoadConfig_MemoryStoreNeedsNoPath(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TODO_TOKEN_STORE", "memory")
	logger, _ := test.NewNullLogger()

	cfg, err := LoadConfig(logger)
	require.NoError(t, err)
	assert.Empty(t, cfg.TokenPath)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown store": {"TODO_TOKEN_STORE": "redis"},
		"zero timeout":  {"TODO_REQUEST_TIMEOUT": "0s"},
		"bad timeout":   {"TODO_REQUEST_TIMEOUT": "soon"},
		"blank api url": {"TODO_API_URL": "  "},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			logger, _ := test.NewNullLogger()
			_, err := LoadConfig(logger)
			assert.Error(t, err)
		})
	}
}

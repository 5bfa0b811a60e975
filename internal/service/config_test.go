package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/worktime/internal/config"
)

func TestConfigService_GetAndPath(t *testing.T) {
	cfg := config.DefaultConfig()
	svc := NewConfigService("/tmp/test/config.toml", cfg)

	assert.Equal(t, cfg, svc.Get())
	assert.Equal(t, "/tmp/test/config.toml", svc.GetPath())
}

func TestConfigService_Init(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	svc := NewConfigService(configPath, config.DefaultConfig())

	assert.False(t, svc.Exists())
	require.NoError(t, svc.Init())
	assert.True(t, svc.Exists())

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# worktime configuration file")

	assert.ErrorContains(t, svc.Init(), "already exists")
}

func TestConfigService_UpdateAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	svc := NewConfigService(configPath, config.DefaultConfig())

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Workday.TaskOrder = "OLDEST_FIRST"
	cfg.Gateway.URL = "https://tasks.example.com/"
	require.NoError(t, svc.Update(cfg))

	assert.Equal(t, "oldest_first", svc.Get().Workday.TaskOrder)

	other := NewConfigService(configPath, config.DefaultConfig())
	require.NoError(t, other.Reload())
	assert.Equal(t, "UTC", other.Get().Timezone)
	assert.Equal(t, "https://tasks.example.com", other.Get().Gateway.URL)
	assert.Equal(t, "oldest_first", other.Get().Workday.TaskOrder)
}

func TestConfigService_UpdateInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	svc := NewConfigService(configPath, config.DefaultConfig())

	cfg := config.DefaultConfig()
	cfg.Workday.BlackoutEnd = "11:00"

	assert.ErrorContains(t, svc.Update(cfg), "invalid configuration")
	assert.False(t, svc.Exists())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg, err := GetConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "https://develooper.ru/api", cfg.API.BaseURL)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, "info", cfg.Logger.LogLevel)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, "light", cfg.Telegram.ThemePinned)
	require.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	require.Empty(t, cfg.Handler.ServerAddr)
}

func TestGetConfigEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "GOODSRESERV_API_URL=http://localhost:8000\n" +
		"GOODSRESERV_STORE_DSN=:memory:\n" +
		"GOODSRESERV_SESSION_TTL=1h\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// окружение важнее файла
	t.Setenv("GOODSRESERV_LOG_LEVEL", "debug")
	t.Setenv("GOODSRESERV_API_URL", "http://api:9000")
	t.Cleanup(func() {
		os.Unsetenv("GOODSRESERV_STORE_DSN")
		os.Unsetenv("GOODSRESERV_SESSION_TTL")
	})

	cfg, err := GetConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://api:9000", cfg.API.BaseURL)
	require.Equal(t, ":memory:", cfg.Store.DSN)
	require.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, "debug", cfg.Logger.LogLevel)
}

func TestGetConfigBadValue(t *testing.T) {
	t.Setenv("GOODSRESERV_API_TIMEOUT", "soon")
	_, err := GetConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

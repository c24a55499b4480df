package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMandatoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WS_URL", "wss://coordinator.example/ws")
	t.Setenv("WS_AUTH_TOKEN", "secret-token")
	t.Setenv("WIFI_SSID", "greenhouse")
	t.Setenv("WIFI_PASS", "hunter2")
}

func TestLoadFailsWithoutMandatoryVars(t *testing.T) {
	for _, key := range []string{"WS_URL", "WS_AUTH_TOKEN", "WIFI_SSID", "WIFI_PASS"} {
		os.Unsetenv(key)
	}

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	setMandatoryEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://coordinator.example/ws", cfg.WsURL)
	assert.Equal(t, "secret-token", cfg.WsAuthToken)
	assert.Equal(t, "greenhouse", cfg.WifiSSID)
	assert.Equal(t, "hunter2", cfg.WifiPass)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 200*time.Millisecond, cfg.RelayTick)
	assert.Equal(t, 600*time.Second, cfg.ScheduleDefaultWait)
	assert.Equal(t, defaultHardware(), cfg.Hardware)
	assert.NotEmpty(t, cfg.DeviceID)
}

func TestLoadHonorsPrefixedEnvOverride(t *testing.T) {
	setMandatoryEnv(t)
	t.Setenv("IRRIGATION_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

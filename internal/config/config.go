// Package config loads the controller's runtime configuration from
// environment variables, an optional config file, and defaults, layered the
// way the teacher's CLI entrypoint wires viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every externally-tunable parameter of the controller.
type Config struct {
	// Device identity, conventionally the station MAC address
	// ("xx:xx:xx:xx:xx:xx", distilled spec §3 BoardInfo.device_id).
	DeviceID string

	// Coordinator WebSocket (distilled spec §6.1, §6.4).
	WsURL       string
	WsAuthToken string

	// WiFi association (distilled spec §6.4).
	WifiSSID string
	WifiPass string

	// Persistence (distilled spec §6.2).
	StoragePath string

	// Ambient stack.
	LogLevel    string
	Environment string

	// Tick intervals; defaults match the distilled spec's nominal values.
	RelayTick        time.Duration
	ScheduleHeartbeat time.Duration
	ScheduleDefaultWait time.Duration
	WifiPoll         time.Duration
	WsPoll           time.Duration
	SntpPoll         time.Duration

	// Hardware bindings (distilled spec §6.3), carried as configuration
	// metadata even though this module has no literal GPIO driver.
	Hardware HardwareConfig
}

// HardwareConfig records the GPIO/I²C bindings named in the distilled spec.
// It is consumed only by whichever relay.Pin/RTC implementation is wired at
// the composition root; the simulated implementations used by tests and the
// non-hardware build ignore it.
type HardwareConfig struct {
	I2CSDAPin int
	I2CSCLPin int
	RTCAddr   int
	RelayPins []int
}

func defaultHardware() HardwareConfig {
	return HardwareConfig{
		I2CSDAPin: 21,
		I2CSCLPin: 22,
		RTCAddr:   0x68,
		RelayPins: []int{2, 4, 5, 25, 26, 18, 19},
	}
}

// Load reads configuration from environment variables (optionally seeded by
// a .env file already loaded into the process environment by the caller),
// an optional config file named "irrigation-controller" on $HOME or ".", and
// defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IRRIGATION")
	v.AutomaticEnv()

	// These four are mandated by the distilled spec under their bare names
	// (no IRRIGATION_ prefix), set at build/deploy time.
	_ = v.BindEnv("ws_url", "WS_URL")
	_ = v.BindEnv("ws_auth_token", "WS_AUTH_TOKEN")
	_ = v.BindEnv("wifi_ssid", "WIFI_SSID")
	_ = v.BindEnv("wifi_pass", "WIFI_PASS")

	v.SetConfigName("irrigation-controller")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	v.SetDefault("device_id", "02:00:00:00:00:01")
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", "development")
	v.SetDefault("storage_path", "irrigation.db")
	v.SetDefault("relay_tick", 200*time.Millisecond)
	v.SetDefault("schedule_heartbeat", time.Second)
	v.SetDefault("schedule_default_wait", 600*time.Second)
	v.SetDefault("wifi_poll", 5*time.Second)
	v.SetDefault("ws_poll", 3*time.Second)
	v.SetDefault("sntp_poll", 20*time.Second)

	cfg := Config{
		DeviceID:            v.GetString("device_id"),
		WsURL:               v.GetString("ws_url"),
		WsAuthToken:         v.GetString("ws_auth_token"),
		WifiSSID:            v.GetString("wifi_ssid"),
		WifiPass:            v.GetString("wifi_pass"),
		StoragePath:         v.GetString("storage_path"),
		LogLevel:            v.GetString("log_level"),
		Environment:         v.GetString("environment"),
		RelayTick:           v.GetDuration("relay_tick"),
		ScheduleHeartbeat:   v.GetDuration("schedule_heartbeat"),
		ScheduleDefaultWait: v.GetDuration("schedule_default_wait"),
		WifiPoll:            v.GetDuration("wifi_poll"),
		WsPoll:              v.GetDuration("ws_poll"),
		SntpPoll:            v.GetDuration("sntp_poll"),
		Hardware:            defaultHardware(),
	}

	if cfg.WsURL == "" || cfg.WsAuthToken == "" || cfg.WifiSSID == "" || cfg.WifiPass == "" {
		return Config{}, fmt.Errorf("config: WS_URL, WS_AUTH_TOKEN, WIFI_SSID and WIFI_PASS are required")
	}

	return cfg, nil
}

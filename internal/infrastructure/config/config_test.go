package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
bridge:
  system_id: "fibaro-test"
  health_interval: 15
hub:
  poll_timeout: 90
  max_poll_rate: 2.5
mqtt:
  broker:
    host: "broker.local"
    port: 1884
    client_id: "test-client"
  qos: 0
logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fibaro-test", cfg.Bridge.SystemID)
	assert.Equal(t, "zwave", cfg.Bridge.DevicePrefix, "default should survive partial file")
	assert.Equal(t, 15*time.Second, cfg.GetHealthInterval())
	assert.Equal(t, 90*time.Second, cfg.GetPollTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetRequestTimeout())
	assert.InDelta(t, 2.5, cfg.Hub.MaxPollRate, 0.0001)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker.Host)
	assert.Equal(t, 1884, cfg.MQTT.Broker.Port)
	assert.Equal(t, 0, cfg.MQTT.QoS)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
bridge:
  system_id: "bad/id"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge.system_id")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FIBARO_BRIDGE_SYSTEM_ID", "fibaro-env")
	t.Setenv("FIBARO_BRIDGE_MQTT_PORT", "2883")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "fibaro-env", cfg.Bridge.SystemID)
	assert.Equal(t, 2883, cfg.MQTT.Broker.Port)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(_ *Config) {},
		},
		{
			name:    "missing system id",
			mutate:  func(c *Config) { c.Bridge.SystemID = " " },
			wantErr: "bridge.system_id is required",
		},
		{
			name:    "wildcard in system id",
			mutate:  func(c *Config) { c.Bridge.SystemID = "fibaro+" },
			wantErr: "bridge.system_id must not contain",
		},
		{
			name:    "missing device prefix",
			mutate:  func(c *Config) { c.Bridge.DevicePrefix = "" },
			wantErr: "bridge.device_prefix",
		},
		{
			name:    "zero poll timeout",
			mutate:  func(c *Config) { c.Hub.PollTimeout = 0 },
			wantErr: "hub.poll_timeout",
		},
		{
			name:    "negative poll rate",
			mutate:  func(c *Config) { c.Hub.MaxPollRate = -1 },
			wantErr: "hub.max_poll_rate",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "invalid broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name: "api port checked only when enabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
		},
		{
			name: "invalid api port",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: "api.port",
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "telemetry"
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("FIBARO_BRIDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("FIBARO_BRIDGE_MQTT_PORT", "not-a-number")
	t.Setenv("FIBARO_BRIDGE_MQTT_CLIENT_ID", "bridge-1")
	t.Setenv("FIBARO_BRIDGE_MQTT_USERNAME", "testuser")
	t.Setenv("FIBARO_BRIDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("FIBARO_BRIDGE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("FIBARO_BRIDGE_LOG_LEVEL", "warn")

	applyEnvOverrides(cfg)

	assert.Equal(t, "mqtt.example.com", cfg.MQTT.Broker.Host)
	assert.Equal(t, 1883, cfg.MQTT.Broker.Port, "unparsable port keeps default")
	assert.Equal(t, "bridge-1", cfg.MQTT.Broker.ClientID)
	assert.Equal(t, "testuser", cfg.MQTT.Auth.Username)
	assert.Equal(t, "testpass", cfg.MQTT.Auth.Password)
	assert.Equal(t, "secret-token", cfg.InfluxDB.Token)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "homa-fibaro", cfg.Bridge.SystemID)
	assert.Equal(t, 1883, cfg.MQTT.Broker.Port)
	assert.Equal(t, 30*time.Second, cfg.GetHealthInterval())
	assert.Zero(t, cfg.Hub.MaxPollRate)
	assert.False(t, cfg.InfluxDB.Enabled)
}

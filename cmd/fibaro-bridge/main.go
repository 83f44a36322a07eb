// Fibaro bridge - mirrors a Fibaro home-automation hub onto an MQTT bus.
//
// Each hub device appears under /devices/<prefix>-<id>/controls/...; hub
// credentials are taken from retained messages on /sys/<system_id>/+.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/nerrad567/fibaro-bridge/internal/api"
	"github.com/nerrad567/fibaro-bridge/internal/bridge"
	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/config"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// Process exit codes.
const (
	exitOK              = 0
	exitStartupFailure  = 1
	exitBootstrapFailed = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, bridge.ErrBootstrapFailed):
		return exitBootstrapFailed
	default:
		return exitStartupFailure
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a signal-driven shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Fibaro bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = "fibaro-bridge-" + uuid.NewString()
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.BridgeStatusTopic(cfg.Bridge.SystemID))
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	telemetry, closeTelemetry, err := connectTelemetry(ctx, cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	defer closeTelemetry()

	checks := map[string]api.HealthChecker{"mqtt": mqttClient}
	var tel bridge.Telemetry
	if telemetry != nil {
		tel = telemetry
		checks["influxdb"] = telemetry
	}

	b, err := bridge.NewBridge(bridge.Options{
		SystemID:       cfg.Bridge.SystemID,
		DevicePrefix:   cfg.Bridge.DevicePrefix,
		Version:        version,
		MQTT:           mqttClient,
		QoS:            mqttClient.QoS(),
		HubFactory:     hubFactory(cfg),
		Telemetry:      tel,
		Logger:         log.Component("bridge"),
		HealthInterval: cfg.GetHealthInterval(),
		MaxPollRate:    cfg.Hub.MaxPollRate,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		b.PublishHealth()
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if cfg.API.Enabled {
		srv, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Bridge:  b,
			Version: version,
			Checks:  checks,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if apiErr = srv.Start(ctx); apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("Fibaro bridge running", "system_id", cfg.Bridge.SystemID)
	if err := b.Run(ctx); err != nil {
		return err
	}

	log.Info("shutdown signal received, stopping")
	return nil
}

// loadConfig reads the config file, falling back to defaults plus
// environment when the file does not exist.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	path := getConfigPath()

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("no configuration file, using defaults and environment", "path", path)
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log.Info("configuration loaded", "path", path)
	return cfg, nil
}

// getConfigPath returns the configuration file path.
// FIBARO_BRIDGE_CONFIG overrides the default.
func getConfigPath() string {
	if path := os.Getenv("FIBARO_BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectTelemetry connects to InfluxDB when enabled. The returned
// client is nil when it is disabled.
func connectTelemetry(ctx context.Context, cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, func(), error) {
	client, err := influxdb.Connect(ctx, cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)

	return client, func() {
		log.Info("closing InfluxDB connection")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}, nil
}

// hubFactory builds hub clients with the configured timeouts.
func hubFactory(cfg *config.Config) bridge.HubFactory {
	return func(s bridge.HubSettings) (bridge.Hub, error) {
		client, err := fibaro.NewClient(fibaro.Config{
			BaseURL:        s.URL,
			Username:       s.Username,
			Password:       s.Password,
			RequestTimeout: cfg.GetRequestTimeout(),
			PollTimeout:    cfg.GetPollTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

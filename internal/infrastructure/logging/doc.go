// Package logging provides structured logging for the Fibaro bridge.
//
// It wraps log/slog so every component logs through one configured handler
// carrying the service name and build version.
//
// Configuration lives under the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	hubLog := logger.With("component", "fibaro")
//	hubLog.Info("devices enumerated", "count", 12)
//
// Hub credentials arrive over MQTT at runtime. They must never be logged;
// log the key name only.
package logging

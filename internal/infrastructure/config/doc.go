// Package config handles loading and validating the Fibaro bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Hub address and credentials are not configured here. They arrive as
// retained MQTT messages under /sys/<system_id>/ and are collected by the
// bridge's configuration gate.
//
// Security Considerations:
//   - MQTT and InfluxDB secrets should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bridge.SystemID)
package config

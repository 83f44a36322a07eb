// Package influxdb exports bridge telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Numeric control
// values (temperature, power draw, battery level, dimmer level) are written
// to the "fibaro_control" measurement tagged with device_id and control.
//
// Export is optional: Connect returns ErrDisabled when influxdb.enabled is
// false and the bridge runs without a telemetry sink.
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.RecordControl(12, "temperature", 21.5)
//
// Writes are batched according to batch_size and flush_interval.
// Write errors are delivered asynchronously through SetOnError.
package influxdb

package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// ControlMeasurement is the measurement name for control value points.
const ControlMeasurement = "fibaro_control"

// RecordControl writes one numeric control value for a hub device.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Hub device id
//   - control: Control name (e.g. "temperature", "power", "battery-level")
//   - value: The numeric value to record
//
// Example:
//
//	client.RecordControl(12, "temperature", 21.5)
func (c *Client) RecordControl(deviceID int, control string, value float64) {
	c.RecordControlAt(deviceID, control, value, time.Now())
}

// RecordControlAt is RecordControl with an explicit timestamp.
func (c *Client) RecordControlAt(deviceID int, control string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		ControlMeasurement,
		map[string]string{
			"device_id": strconv.Itoa(deviceID),
			"control":   control,
		},
		map[string]any{
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

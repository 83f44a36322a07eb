package bridge

import (
	"strconv"
)

// Publication kinds, used as metric labels.
const (
	kindState = "state"
	kindMeta  = "meta"
	kindEvent = "event"
)

// Publisher is the outbound side used by device handlers.
//
// State and metadata are retained so late subscribers see the last value.
// Events are one-shot and never retained. Publication failures are handled
// by the implementation; handlers never see them.
type Publisher interface {
	PublishState(deviceID int, control, value string)
	PublishMeta(deviceID int, control, attr, value string)
	PublishEvent(deviceID int, name, value string)
}

// Telemetry receives numeric control values for time-series export.
// Satisfied by *influxdb.Client.
type Telemetry interface {
	RecordControl(deviceID int, control string, value float64)
}

// mqttPublisher publishes to MQTT and mirrors numeric state to Telemetry.
type mqttPublisher struct {
	client    MQTTClient
	topics    Topics
	qos       byte
	metrics   *Metrics
	telemetry Telemetry
	logger    Logger
}

func (p *mqttPublisher) PublishState(deviceID int, control, value string) {
	p.publish(kindState, p.topics.Control(deviceID, control), value, true)

	if p.telemetry == nil {
		return
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		p.telemetry.RecordControl(deviceID, control, f)
	}
}

func (p *mqttPublisher) PublishMeta(deviceID int, control, attr, value string) {
	p.publish(kindMeta, p.topics.ControlMeta(deviceID, control, attr), value, true)
}

func (p *mqttPublisher) PublishEvent(deviceID int, name, value string) {
	p.publish(kindEvent, p.topics.Event(deviceID, name), value, false)
}

func (p *mqttPublisher) publish(kind, topic, payload string, retained bool) {
	err := p.client.Publish(topic, []byte(payload), p.qos, retained)
	p.metrics.published(kind, err == nil)
	if err != nil {
		p.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}

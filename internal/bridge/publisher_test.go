package bridge

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(client *MockMQTTClient, telemetry Telemetry) (*mqttPublisher, *Metrics) {
	metrics := NewMetrics()
	return &mqttPublisher{
		client:    client,
		topics:    NewTopics(""),
		qos:       1,
		metrics:   metrics,
		telemetry: telemetry,
		logger:    nopLogger{},
	}, metrics
}

func TestPublisher_RetainFlags(t *testing.T) {
	client := NewMockMQTTClient()
	p, _ := newTestPublisher(client, nil)

	p.PublishMeta(12, "switch", "type", "switch")
	p.PublishState(12, "switch", "1")
	p.PublishEvent(3, "door", "open")

	assert.Equal(t, []mockPublish{
		{Topic: "/devices/zwave-12/controls/switch/meta/type", Payload: "switch", QoS: 1, Retained: true},
		{Topic: "/devices/zwave-12/controls/switch", Payload: "1", QoS: 1, Retained: true},
		{Topic: "/events/zwave-3/door", Payload: "open", QoS: 1, Retained: false},
	}, client.GetPublished())
}

func TestPublisher_FailureIsCounted(t *testing.T) {
	client := NewMockMQTTClient()
	client.SetConnected(false)
	p, metrics := newTestPublisher(client, nil)

	assert.NotPanics(t, func() {
		p.PublishState(1, "switch", "0")
		p.PublishEvent(1, "door", "closed")
	})

	assert.Empty(t, client.GetPublished())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.publications.WithLabelValues(kindState, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.publications.WithLabelValues(kindEvent, "error")))
}

func TestPublisher_TelemetryNumericOnly(t *testing.T) {
	client := NewMockMQTTClient()
	tel := &recordingTelemetry{}
	p, _ := newTestPublisher(client, tel)

	p.PublishState(6, "temperature", "21.5")
	p.PublishState(3, "door", "open")
	p.PublishState(8, "switch", "45")
	p.PublishMeta(8, "switch", "max", "99")
	p.PublishEvent(3, "door", "1")

	require.Len(t, tel.records, 2)
	assert.Equal(t, []string{"temperature", "switch"}, tel.records)
	assert.Equal(t, []float64{21.5, 45}, tel.values)
}

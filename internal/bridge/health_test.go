package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
)

func newTestReporter(client *MockMQTTClient, state *Status) *HealthReporter {
	return NewHealthReporter(HealthReporterConfig{
		SystemID:  "homa-fibaro",
		Version:   "1.2.3",
		Interval:  20 * time.Millisecond,
		Publisher: client,
		State:     func() Status { return *state },
	})
}

func decodeHealth(t *testing.T, p mockPublish) HealthMessage {
	t.Helper()
	var msg HealthMessage
	require.NoError(t, json.Unmarshal([]byte(p.Payload), &msg))
	return msg
}

func TestHealthReporter_DetermineStatus(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		state     Status
		want      HealthStatus
	}{
		{"mqtt down", false, Status{Gate: GateLocked, Bootstrapped: true}, HealthDegraded},
		{"waiting for config", true, Status{Gate: GateCollecting}, HealthStarting},
		{"enumerating", true, Status{Gate: GateLocked}, HealthStarting},
		{"poll failing", true, Status{Gate: GateLocked, Bootstrapped: true, LastPollFailed: true}, HealthDegraded},
		{"running", true, Status{Gate: GateLocked, Bootstrapped: true}, HealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockMQTTClient()
			client.SetConnected(tt.connected)
			state := tt.state
			h := newTestReporter(client, &state)

			status, _ := h.determineStatus()
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestHealthReporter_PublishNow(t *testing.T) {
	client := NewMockMQTTClient()
	state := Status{Gate: GateLocked, Bootstrapped: true, Devices: 4, Cursor: fibaro.Cursor("77")}
	h := newTestReporter(client, &state)

	require.NoError(t, h.PublishNow())

	pubs := client.PublishedTo("/bridges/homa-fibaro/status")
	require.Len(t, pubs, 1)
	assert.True(t, pubs[0].Retained)
	assert.Equal(t, byte(1), pubs[0].QoS)

	msg := decodeHealth(t, pubs[0])
	assert.Equal(t, "homa-fibaro", msg.Bridge)
	assert.Equal(t, HealthHealthy, msg.Status)
	assert.Equal(t, "1.2.3", msg.Version)
	assert.Equal(t, "locked", msg.Config)
	assert.Equal(t, 4, msg.Devices)
	assert.Equal(t, "77", msg.Cursor)
}

func TestHealthReporter_PeriodicAndStop(t *testing.T) {
	client := NewMockMQTTClient()
	state := Status{}
	h := newTestReporter(client, &state)

	h.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(client.PublishedTo(h.Topic())) >= 2
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()

	pubs := client.PublishedTo(h.Topic())
	last := decodeHealth(t, pubs[len(pubs)-1])
	assert.Equal(t, HealthStopping, last.Status)

	stopping := 0
	for _, p := range pubs {
		if decodeHealth(t, p).Status == HealthStopping {
			stopping++
		}
	}
	assert.Equal(t, 1, stopping)

	n := len(pubs)
	time.Sleep(60 * time.Millisecond)
	assert.Len(t, client.PublishedTo(h.Topic()), n, "no publications after Stop")
}

func TestHealthReporter_PublishStarting(t *testing.T) {
	client := NewMockMQTTClient()
	state := Status{}
	h := newTestReporter(client, &state)

	require.NoError(t, h.PublishStarting())

	pubs := client.PublishedTo(h.Topic())
	require.Len(t, pubs, 1)
	msg := decodeHealth(t, pubs[0])
	assert.Equal(t, HealthStarting, msg.Status)
	assert.Equal(t, "collecting", msg.Config)
	assert.Equal(t, "0", msg.Cursor)
}

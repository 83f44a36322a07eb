package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/mqtt"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions map[string]mqtt.MessageHandler
	connected     bool
	subscribeErr  map[string]error
}

type mockPublish struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		subscriptions: make(map[string]mqtt.MessageHandler),
		subscribeErr:  make(map[string]error),
		connected:     true,
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return mqtt.ErrNotConnected
	}
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  string(payload),
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.subscribeErr[topic]; err != nil {
		return err
	}
	m.subscriptions[topic] = handler
	return nil
}

func (m *MockMQTTClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, topic)
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) SetConnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = v
}

func (m *MockMQTTClient) FailSubscribe(topic string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeErr[topic] = err
}

func (m *MockMQTTClient) HasSubscription(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subscriptions[topic]
	return ok
}

// Deliver routes a message to every subscription whose filter matches.
func (m *MockMQTTClient) Deliver(topic, payload string) {
	m.mu.Lock()
	var handlers []mqtt.MessageHandler
	for filter, h := range m.subscriptions {
		if mqtt.TopicMatches(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	m.mu.Unlock()

	for _, h := range handlers {
		_ = h(topic, []byte(payload))
	}
}

func (m *MockMQTTClient) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockPublish, len(m.published))
	copy(out, m.published)
	return out
}

// PublishedTo returns payloads published to topic, in order.
func (m *MockMQTTClient) PublishedTo(topic string) []mockPublish {
	var out []mockPublish
	for _, p := range m.GetPublished() {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockMQTTClient) ClearPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// pollResult is one scripted refreshStates reply.
type pollResult struct {
	resp *fibaro.StatesResponse
	err  error
}

// pollCall records one refreshStates request.
type pollCall struct {
	Cursor fibaro.Cursor
	Start  time.Time
	End    time.Time
}

// MockHub implements Hub for testing.
//
// RefreshStates serves scripted results in order and then blocks until the
// context is cancelled.
type MockHub struct {
	mu         sync.Mutex
	devices    []fibaro.Device
	devicesErr error
	script     []pollResult
	polls      []pollCall
	inFlight   int
	maxFlight  int
	actions    []mockAction
	actionErr  error
	actionDone chan struct{}
	actionGate chan struct{}
	pollDelay  time.Duration
}

type mockAction struct {
	DeviceID int
	Name     string
	Args     map[string]string
}

func NewMockHub(devices ...fibaro.Device) *MockHub {
	return &MockHub{
		devices:    devices,
		actionDone: make(chan struct{}, 64),
	}
}

func (h *MockHub) Script(results ...pollResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.script = append(h.script, results...)
}

func (h *MockHub) Devices(ctx context.Context) ([]fibaro.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.devicesErr != nil {
		return nil, h.devicesErr
	}
	return h.devices, nil
}

func (h *MockHub) RefreshStates(ctx context.Context, last fibaro.Cursor) (*fibaro.StatesResponse, error) {
	h.mu.Lock()
	h.inFlight++
	if h.inFlight > h.maxFlight {
		h.maxFlight = h.inFlight
	}
	call := pollCall{Cursor: last, Start: time.Now()}
	var next *pollResult
	if len(h.script) > 0 {
		next = &h.script[0]
		h.script = h.script[1:]
	}
	delay := h.pollDelay
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inFlight--
		call.End = time.Now()
		h.polls = append(h.polls, call)
		h.mu.Unlock()
	}()

	if next == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return next.resp, next.err
}

func (h *MockHub) CallAction(_ context.Context, deviceID int, name string, args map[string]string) error {
	h.mu.Lock()
	gate := h.actionGate
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}

	h.mu.Lock()
	h.actions = append(h.actions, mockAction{DeviceID: deviceID, Name: name, Args: args})
	err := h.actionErr
	h.mu.Unlock()

	select {
	case h.actionDone <- struct{}{}:
	default:
	}
	return err
}

func (h *MockHub) GetPolls() []pollCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]pollCall, len(h.polls))
	copy(out, h.polls)
	return out
}

func (h *MockHub) GetActions() []mockAction {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]mockAction, len(h.actions))
	copy(out, h.actions)
	return out
}

func (h *MockHub) MaxInFlight() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxFlight
}

func (h *MockHub) ScriptRemaining() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.script)
}

// recordingPublisher implements Publisher for handler tests.
type recordingPublisher struct {
	states []publication
	metas  []publication
	events []publication
}

type publication struct {
	DeviceID int
	Control  string
	Attr     string
	Value    string
}

func (p *recordingPublisher) PublishState(deviceID int, control, value string) {
	p.states = append(p.states, publication{DeviceID: deviceID, Control: control, Value: value})
}

func (p *recordingPublisher) PublishMeta(deviceID int, control, attr, value string) {
	p.metas = append(p.metas, publication{DeviceID: deviceID, Control: control, Attr: attr, Value: value})
}

func (p *recordingPublisher) PublishEvent(deviceID int, name, value string) {
	p.events = append(p.events, publication{DeviceID: deviceID, Control: name, Value: value})
}

func (p *recordingPublisher) total() int {
	return len(p.states) + len(p.metas) + len(p.events)
}

func (p *recordingPublisher) reset() {
	p.states, p.metas, p.events = nil, nil, nil
}

// recordingActions implements Actions for handler tests.
type recordingActions struct {
	calls []mockAction
}

func (a *recordingActions) Call(deviceID int, name string, args map[string]string) {
	a.calls = append(a.calls, mockAction{DeviceID: deviceID, Name: name, Args: args})
}

// recordingTelemetry implements Telemetry.
type recordingTelemetry struct {
	mu      sync.Mutex
	records []string
	values  []float64
}

func (r *recordingTelemetry) RecordControl(deviceID int, control string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, control)
	r.values = append(r.values, value)
}

var errHubDown = errors.New("hub unreachable")

func cursorPtr(c string) *fibaro.Cursor {
	v := fibaro.Cursor(c)
	return &v
}

package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/mqtt"
)

// taskQueueSize bounds work queued for the event loop.
const taskQueueSize = 256

// Logger is the logging interface used throughout the bridge.
// Satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// MQTTClient is the subset of *mqtt.Client the bridge uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Hub is the subset of *fibaro.Client the bridge uses.
type Hub interface {
	Devices(ctx context.Context) ([]fibaro.Device, error)
	RefreshStates(ctx context.Context, last fibaro.Cursor) (*fibaro.StatesResponse, error)
	CallAction(ctx context.Context, deviceID int, name string, args map[string]string) error
}

// HubFactory builds a Hub once the configuration gate has locked.
type HubFactory func(settings HubSettings) (Hub, error)

// Status is a point-in-time view of the bridge, safe to read from any goroutine.
type Status struct {
	Gate           GateState     `json:"-"`
	Bootstrapped   bool          `json:"bootstrapped"`
	Devices        int           `json:"devices"`
	Cursor         fibaro.Cursor `json:"cursor"`
	LastPollFailed bool          `json:"last_poll_failed"`
	Polls          uint64        `json:"polls"`
}

// Options holds configuration for creating a bridge.
type Options struct {
	// SystemID selects /sys/<id>/+ for configuration and
	// /bridges/<id>/status for health. Required.
	SystemID string

	// DevicePrefix names devices on the bus. Default: "zwave".
	DevicePrefix string

	// Version is reported in health messages.
	Version string

	// MQTT is the bus client. Required.
	MQTT MQTTClient

	// QoS is used for subscriptions and device publications.
	QoS byte

	// HubFactory creates the hub client from the locked settings. Required.
	HubFactory HubFactory

	// Telemetry receives numeric control values (optional).
	Telemetry Telemetry

	// Metrics collects Prometheus metrics. A private set is created if nil.
	Metrics *Metrics

	// Logger is optional.
	Logger Logger

	HealthInterval time.Duration

	// MaxPollRate caps refreshStates requests per second. 0 disables pacing.
	MaxPollRate float64

	// PollFailureDelay is waited after a failed poll. Zero retries at once.
	PollFailureDelay time.Duration
}

// Bridge mirrors Fibaro hub devices onto the MQTT bus.
//
// All device, registry and gate work runs on a single event loop inside
// Run. MQTT callbacks and the poll loop hand work to it as closures, so
// handlers never run concurrently and need no locking. Read-only state for
// health and the status API is kept in atomics.
type Bridge struct {
	systemID         string
	qos              byte
	mqtt             MQTTClient
	newHub           HubFactory
	topics           Topics
	publisher        *mqttPublisher
	health           *HealthReporter
	metrics          *Metrics
	logger           Logger
	maxPollRate      float64
	pollFailureDelay time.Duration

	// Owned by the event loop.
	gate     *ConfigGate
	registry *Registry
	runCtx   context.Context
	workers  sync.WaitGroup

	// Set by the bootstrap worker; read by Run after workers.Wait.
	actions      *ActionGateway
	commandTopic string

	tasks   chan func()
	fatal   chan error
	stopped chan struct{}
	running atomic.Bool

	gateLocked   atomic.Bool
	bootstrapped atomic.Bool
	deviceCount  atomic.Int64
	poller       atomic.Pointer[PollLoop]
}

// NewBridge creates a bridge. Call Run to start it.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.SystemID == "" {
		return nil, fmt.Errorf("system id is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.HubFactory == nil {
		return nil, fmt.Errorf("hub factory is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	topics := NewTopics(opts.DevicePrefix)

	b := &Bridge{
		systemID:         opts.SystemID,
		qos:              opts.QoS,
		mqtt:             opts.MQTT,
		newHub:           opts.HubFactory,
		topics:           topics,
		metrics:          metrics,
		logger:           logger,
		maxPollRate:      opts.MaxPollRate,
		pollFailureDelay: opts.PollFailureDelay,
		gate:             NewConfigGate(),
		registry:         NewRegistry(),
		tasks:            make(chan func(), taskQueueSize),
		fatal:            make(chan error, 1),
		stopped:          make(chan struct{}),
	}

	b.publisher = &mqttPublisher{
		client:    opts.MQTT,
		topics:    topics,
		qos:       opts.QoS,
		metrics:   metrics,
		telemetry: opts.Telemetry,
		logger:    logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		SystemID:  opts.SystemID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTT,
		State:     b.Status,
		Logger:    logger,
	})

	return b, nil
}

// Run starts the bridge and blocks until ctx is cancelled or bootstrap
// fails.
//
// It subscribes to the configuration topics and waits for the gate to
// lock. Locking triggers device enumeration, the command subscription and
// the poll loop. Cancellation returns nil; an enumeration failure returns
// an error wrapping ErrBootstrapFailed.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.runCtx = ctx

	if err := b.health.PublishStarting(); err != nil {
		b.logger.Warn("failed to publish starting status", "error", err)
	}
	b.health.Start(ctx)

	configTopic := ConfigSubscription(b.systemID)
	var err error
	if subErr := b.mqtt.Subscribe(configTopic, b.qos, b.onConfig); subErr != nil {
		err = fmt.Errorf("subscribe to configuration: %w", subErr)
	} else {
		b.logger.Info("waiting for hub configuration", "topic", configTopic)
		err = b.loop(ctx)
	}

	cancel()
	b.workers.Wait()
	// The loop has returned, so no task can start another action.
	if b.actions != nil {
		b.actions.Wait()
	}
	b.unsubscribe(configTopic, b.commandTopic)
	b.health.Stop()
	close(b.stopped)

	if err != nil {
		b.logger.Error("bridge stopped", "error", err)
	} else {
		b.logger.Info("bridge stopped")
	}
	return err
}

// unsubscribe releases the bridge's subscriptions on shutdown.
func (b *Bridge) unsubscribe(topics ...string) {
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if err := b.mqtt.Unsubscribe(topic); err != nil {
			b.logger.Debug("failed to unsubscribe", "topic", topic, "error", err)
		}
	}
}

// loop executes queued work until shutdown.
func (b *Bridge) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-b.fatal:
			return err
		case task := <-b.tasks:
			b.runTask(task)
		}
	}
}

func (b *Bridge) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event loop task panic recovered", "panic", r)
		}
	}()
	task()
}

// enqueue hands task to the event loop without waiting for it to run.
func (b *Bridge) enqueue(ctx context.Context, task func()) error {
	select {
	case b.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopped:
		return ErrStopped
	}
}

// do runs fn on the event loop and waits for it to finish.
func (b *Bridge) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := b.enqueue(ctx, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stopped:
		return ErrStopped
	}
}

// onConfig receives /sys/<system_id>/<key> messages.
func (b *Bridge) onConfig(topic string, payload []byte) error {
	key := mqtt.LastSegment(topic)
	value := string(payload)

	//nolint:errcheck // dropped only after shutdown
	b.enqueue(context.Background(), func() {
		b.offerConfig(key, value)
	})
	return nil
}

func (b *Bridge) offerConfig(key, value string) {
	if b.gate.State() == GateLocked {
		b.logger.Debug("configuration locked, value ignored", "key", key)
		return
	}

	settings, locked := b.gate.Offer(key, value)
	if !locked {
		b.logger.Debug("configuration value received", "key", key, "missing", b.gate.Missing())
		return
	}

	b.gateLocked.Store(true)
	b.metrics.setConfigLocked()
	b.logger.Info("hub configuration locked", "url", settings.URL)

	b.startBootstrap(settings)
}

// startBootstrap runs enumeration and then the poll loop on a worker
// goroutine. Called once, from the event loop.
func (b *Bridge) startBootstrap(settings HubSettings) {
	ctx := b.runCtx

	b.workers.Add(1)
	go func() {
		defer b.workers.Done()

		if err := b.bootstrap(ctx, settings); err != nil {
			select {
			case b.fatal <- err:
			default:
			}
		}
	}()
}

func (b *Bridge) bootstrap(ctx context.Context, settings HubSettings) error {
	hub, err := b.newHub(settings)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBootstrapFailed, err)
	}

	devices, err := hub.Devices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBootstrapFailed, err)
	}

	actions := NewActionGateway(ctx, hub, b.metrics, b.logger)
	b.actions = actions

	if err := b.do(ctx, func() { b.enumerate(devices, actions) }); err != nil {
		return nil
	}
	b.bootstrapped.Store(true)

	commandTopic := b.topics.CommandSubscription()
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.onCommand); err != nil {
		b.logger.Error("failed to subscribe to commands", "topic", commandTopic, "error", err)
	} else {
		b.commandTopic = commandTopic
		b.logger.Info("subscribed to commands", "topic", commandTopic)
	}

	poller := NewPollLoop(PollLoopConfig{
		Hub:          hub,
		Apply:        b.applyChanges,
		MaxRate:      b.maxPollRate,
		FailureDelay: b.pollFailureDelay,
		Metrics:      b.metrics,
		Logger:       b.logger,
	})
	b.poller.Store(poller)

	b.PublishHealth()

	poller.Run(ctx)
	return nil
}

// enumerate registers and initialises a handler per recognised device.
// Unrecognised types are skipped silently.
func (b *Bridge) enumerate(devices []fibaro.Device, actions Actions) {
	env := deviceEnv{
		topics:  b.topics,
		pub:     b.publisher,
		actions: actions,
		logger:  b.logger,
	}

	skipped := 0
	for _, d := range devices {
		h, ok := NewHandler(d.Type, d.ID, env)
		if !ok {
			skipped++
			b.metrics.deviceSkipped()
			continue
		}
		if !b.registry.Add(h) {
			b.logger.Warn("duplicate device id, keeping first", "device_id", d.ID)
			continue
		}
		h.Initialise(d.Properties)
	}

	n := b.registry.Len()
	b.deviceCount.Store(int64(n))
	b.metrics.setDevices(n)
	b.logger.Info("devices enumerated", "registered", n, "skipped", skipped)
}

// applyChanges routes a poll batch to handlers on the event loop.
func (b *Bridge) applyChanges(ctx context.Context, changes []fibaro.Change) error {
	return b.do(ctx, func() {
		for _, ch := range changes {
			h, ok := b.registry.Get(ch.ID)
			if !ok {
				b.metrics.changeDropped()
				continue
			}
			h.ApplyUpdate(ch.Fields)
			b.metrics.changeApplied()
		}
	})
}

// onCommand receives /devices/+/controls/+/on messages.
func (b *Bridge) onCommand(topic string, payload []byte) error {
	id, control, ok := b.topics.ParseCommand(topic)
	if !ok {
		b.metrics.command("ignored")
		return nil
	}
	value := string(payload)

	//nolint:errcheck // dropped only after shutdown
	b.enqueue(context.Background(), func() {
		h, ok := b.registry.Get(id)
		if !ok {
			b.metrics.command("unknown_device")
			return
		}
		b.metrics.command("handled")
		h.Handle(control, value)
	})
	return nil
}

// Devices returns a snapshot of every registered device, taken on the
// event loop.
func (b *Bridge) Devices(ctx context.Context) ([]DeviceSnapshot, error) {
	var out []DeviceSnapshot
	if err := b.do(ctx, func() { out = b.registry.Snapshots() }); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the current bridge status.
func (b *Bridge) Status() Status {
	st := Status{
		Gate:         GateCollecting,
		Bootstrapped: b.bootstrapped.Load(),
		Devices:      int(b.deviceCount.Load()),
		Cursor:       fibaro.InitialCursor,
	}
	if b.gateLocked.Load() {
		st.Gate = GateLocked
	}
	if p := b.poller.Load(); p != nil {
		st.Cursor = p.Cursor()
		st.LastPollFailed = p.LastPollFailed()
		st.Polls = p.Polls()
	}
	return st
}

// Health returns the status the next health message would carry.
func (b *Bridge) Health() HealthMessage {
	status, reason := b.health.determineStatus()
	return b.health.message(status, reason)
}

// PublishHealth publishes the current health status immediately, for
// example after an MQTT reconnect.
func (b *Bridge) PublishHealth() {
	if err := b.health.PublishNow(); err != nil {
		b.logger.Warn("failed to publish health", "error", err)
	}
}

// Metrics returns the bridge's metrics.
func (b *Bridge) Metrics() *Metrics {
	return b.metrics
}

package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/mqtt"
)

const defaultHealthInterval = 30 * time.Second

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthStarting covers waiting for configuration and enumeration.
	HealthStarting HealthStatus = "starting"

	// HealthHealthy indicates devices are enumerated and polling succeeds.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates MQTT is down or the last hub poll failed.
	HealthDegraded HealthStatus = "degraded"

	// HealthStopping is published once during graceful shutdown.
	HealthStopping HealthStatus = "stopping"

	// HealthOffline is the Last Will status, published by the broker.
	HealthOffline HealthStatus = "offline"
)

// HealthMessage is the retained payload on /bridges/<system_id>/status.
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Status        HealthStatus `json:"status"`
	Reason        string       `json:"reason,omitempty"`
	Version       string       `json:"version"`
	Timestamp     time.Time    `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Config        string       `json:"config"`
	Devices       int          `json:"devices"`
	Cursor        string       `json:"cursor,omitempty"`
}

// HealthPublisher is the interface for publishing health messages.
// Satisfied by *mqtt.Client.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	SystemID string
	Version  string

	// Interval is how often to publish. Default: 30 seconds.
	Interval time.Duration

	Publisher HealthPublisher

	// State reports the bridge's current status. Called from the
	// reporter goroutine, so it must be safe for concurrent use.
	State func() Status

	Logger Logger
}

// HealthReporter publishes retained bridge status at a fixed interval.
type HealthReporter struct {
	systemID  string
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	state     func() Status
	logger    Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHealthReporter creates a reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &HealthReporter{
		systemID:  cfg.SystemID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		state:     cfg.State,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Topic returns the retained status topic.
func (h *HealthReporter) Topic() string {
	return mqtt.BridgeStatusTopic(h.systemID)
}

// Start begins periodic reporting until ctx is cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // best-effort during shutdown
		h.publish(HealthStopping, "shutdown")
	})
}

// PublishStarting publishes a "starting" status.
func (h *HealthReporter) PublishStarting() error {
	return h.publish(HealthStarting, "bridge starting")
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publish(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logger.Error("failed to publish health", "error", err)
			}
		}
	}
}

// determineStatus evaluates the current bridge status.
func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}

	st := h.currentState()
	switch {
	case st.Gate != GateLocked:
		return HealthStarting, "waiting for hub configuration"
	case !st.Bootstrapped:
		return HealthStarting, "enumerating devices"
	case st.LastPollFailed:
		return HealthDegraded, "hub poll failing"
	default:
		return HealthHealthy, ""
	}
}

func (h *HealthReporter) currentState() Status {
	if h.state == nil {
		return Status{}
	}
	return h.state()
}

// message builds the payload for a status.
func (h *HealthReporter) message(status HealthStatus, reason string) HealthMessage {
	st := h.currentState()
	return HealthMessage{
		Bridge:        h.systemID,
		Status:        status,
		Reason:        reason,
		Version:       h.version,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Config:        st.Gate.String(),
		Devices:       st.Devices,
		Cursor:        st.Cursor.String(),
	}
}

func (h *HealthReporter) publish(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(h.message(status, reason))
	if err != nil {
		return err
	}

	return h.publisher.Publish(h.Topic(), payload, 1, true)
}

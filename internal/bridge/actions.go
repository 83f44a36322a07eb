package bridge

import (
	"context"
	"sync"
)

// Hub action names.
const (
	ActionTurnOn           = "turnOn"
	ActionTurnOff          = "turnOff"
	ActionSetValue         = "setValue"
	ActionWakeUpDeadDevice = "wakeUpDeadDevice"
)

// controllerDeviceID is the hub's own Z-Wave controller. Dead-device wake
// requests are addressed to it with the target id as arg1.
const controllerDeviceID = 1

// Actions issues outbound hub commands without blocking the caller.
type Actions interface {
	Call(deviceID int, name string, args map[string]string)
}

// ActionGateway sends hub actions fire-and-forget.
//
// Each call runs on its own goroutine. The result is discarded; failures
// are logged at debug level and counted. There is no retry or queueing.
type ActionGateway struct {
	ctx     context.Context
	hub     Hub
	metrics *Metrics
	logger  Logger
	wg      sync.WaitGroup
}

// NewActionGateway returns a gateway whose calls are cancelled with ctx.
func NewActionGateway(ctx context.Context, hub Hub, metrics *Metrics, logger Logger) *ActionGateway {
	if logger == nil {
		logger = nopLogger{}
	}
	return &ActionGateway{
		ctx:     ctx,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}
}

// Call starts the action and returns immediately.
func (g *ActionGateway) Call(deviceID int, name string, args map[string]string) {
	g.logger.Debug("calling hub action", "device_id", deviceID, "action", name, "args", args)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		err := g.hub.CallAction(g.ctx, deviceID, name, args)
		g.metrics.action(name, err == nil)
		if err != nil {
			g.logger.Debug("hub action failed", "device_id", deviceID, "action", name, "error", err)
		}
	}()
}

// Wait blocks until every started call has finished.
func (g *ActionGateway) Wait() {
	g.wg.Wait()
}

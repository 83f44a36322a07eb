package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fibaro-bridge/internal/bridge"
)

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	bridge.HealthMessage
	Bootstrapped   bool   `json:"bootstrapped"`
	LastPollFailed bool   `json:"last_poll_failed"`
	Polls          uint64 `json:"polls"`

	// Components maps each checked dependency to "ok" or its error.
	Components map[string]string `json:"components,omitempty"`
}

// DeviceListResponse is returned by GET /api/v1/devices.
type DeviceListResponse struct {
	Devices []bridge.DeviceSnapshot `json:"devices"`
	Count   int                     `json:"count"`
}

// handleHealth reports bridge health. It answers 503 unless the bridge is
// healthy and every dependency check passes, so it can back a container
// liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	msg := s.bridge.Health()
	st := s.bridge.Status()

	components, checksOK := s.runChecks(r.Context())

	code := http.StatusOK
	if msg.Status != bridge.HealthHealthy || !checksOK {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		HealthMessage:  msg,
		Bootstrapped:   st.Bootstrapped,
		LastPollFailed: st.LastPollFailed,
		Polls:          st.Polls,
		Components:     components,
	})
}

func (s *Server) runChecks(ctx context.Context) (map[string]string, bool) {
	if len(s.checks) == 0 {
		return nil, true
	}

	ok := true
	out := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
		err := c.HealthCheck(checkCtx)
		cancel()

		if err != nil {
			ok = false
			out[name] = err.Error()
			s.logger.Debug("health check failed", "component", name, "error", err)
			continue
		}
		out[name] = "ok"
	}
	return out, ok
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if devices == nil {
		devices = []bridge.DeviceSnapshot{}
	}

	writeJSON(w, http.StatusOK, DeviceListResponse{
		Devices: devices,
		Count:   len(devices),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "device id must be an integer")
		return
	}

	devices, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	for _, d := range devices {
		if d.ID == id {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeNotFound(w, "device not found")
}

// snapshot fetches device snapshots, writing the error response itself
// when it fails.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) ([]bridge.DeviceSnapshot, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), deviceListTimeout)
	defer cancel()

	devices, err := s.bridge.Devices(ctx)
	switch {
	case err == nil:
		return devices, true
	case errors.Is(err, bridge.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "bridge stopped")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "bridge busy")
	default:
		s.logger.Error("device snapshot failed", "error", err)
		writeInternalError(w, "failed to list devices")
	}
	return nil, false
}

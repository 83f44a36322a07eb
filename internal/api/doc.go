// Package api implements the status HTTP server of the Fibaro bridge.
//
// It is read-only and exposes:
//   - GET /api/v1/health: the bridge health message plus poll status
//   - GET /api/v1/devices: a snapshot of every registered device
//   - GET /metrics: Prometheus metrics from the bridge registry
//
// The server is optional and disabled by default. Device snapshots are
// taken on the bridge event loop, so a request never observes a device
// halfway through an update.
package api

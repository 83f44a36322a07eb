// Package bridge mirrors the devices of a Fibaro hub onto an MQTT bus.
//
// # Lifecycle
//
//  1. Hub url, username and password arrive as retained messages on
//     /sys/<system_id>/<key>. The ConfigGate locks once all three are
//     present; later values are ignored.
//  2. The full device list is fetched once. Each device of a known type
//     gets a Handler, which publishes its metadata and current state.
//     A failed fetch ends Run with ErrBootstrapFailed.
//  3. The bridge subscribes to /devices/+/controls/+/on and routes commands
//     to handlers, which may call hub actions.
//  4. A PollLoop long-polls refreshStates forever, advancing the change
//     cursor and applying each change to its handler.
//
// # Topics
//
//	/devices/zwave-<id>/controls/<control>             value, retained
//	/devices/zwave-<id>/controls/<control>/meta/type   retained, once
//	/devices/zwave-<id>/controls/<control>/meta/max    retained, once
//	/events/zwave-<id>/door                            door transition, not retained
//	/bridges/<system_id>/status                        health JSON, retained, Last Will
//
// # Concurrency
//
// Handler, registry and gate state is owned by one event loop goroutine
// running inside Run. MQTT callbacks and the poll loop submit closures to
// it; the poll loop waits for its batch to be applied before the next
// fetch, so at most one fetch is ever outstanding.
package bridge

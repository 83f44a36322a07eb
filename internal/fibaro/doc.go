// Package fibaro is a small HTTP client for the Fibaro home center API.
//
// Three endpoints are used, all relative to the configured base URL
// (for example "http://hc2.local/api/") and all authenticated with HTTP
// basic auth:
//
//	GET devices                                  full device list
//	GET refreshStates?last=<cursor>              long-poll for changes
//	GET callAction?deviceId=<id>&name=<action>   device action, extra args as query
//
// Property values on the wire may be strings, numbers or booleans. They are
// normalised to strings on decode so handlers compare a single representation.
package fibaro

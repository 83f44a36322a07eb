package bridge

import (
	"fmt"
	"strings"
)

// Configuration keys collected by the gate.
const (
	KeyURL      = "url"
	KeyUsername = "username"
	KeyPassword = "password"
)

var requiredKeys = []string{KeyURL, KeyUsername, KeyPassword}

// GateState is the lifecycle state of a ConfigGate.
type GateState int

const (
	// GateCollecting accepts values until every required key is present.
	GateCollecting GateState = iota

	// GateLocked is terminal. Values are frozen.
	GateLocked
)

func (s GateState) String() string {
	switch s {
	case GateCollecting:
		return "collecting"
	case GateLocked:
		return "locked"
	default:
		return fmt.Sprintf("GateState(%d)", int(s))
	}
}

// HubSettings is the frozen hub configuration produced by the gate.
type HubSettings struct {
	URL      string
	Username string
	Password string
}

// ConfigGate collects hub settings delivered as retained bus messages and
// locks exactly once, when all required keys are present.
//
// It is not safe for concurrent use; the bridge only touches it from the
// event loop.
type ConfigGate struct {
	state    GateState
	values   map[string]string
	settings HubSettings
}

// NewConfigGate returns a gate in the collecting state.
func NewConfigGate() *ConfigGate {
	return &ConfigGate{
		state:  GateCollecting,
		values: make(map[string]string),
	}
}

// Offer records a configuration value.
//
// It returns the frozen settings and true on the single call that completes
// the required set. Every later call, including redelivery of retained
// values, returns false and leaves the settings untouched. An empty value
// removes the key while collecting; keys outside the required set are kept
// but never block the lock.
func (g *ConfigGate) Offer(key, value string) (HubSettings, bool) {
	if g.state == GateLocked {
		return HubSettings{}, false
	}

	if strings.TrimSpace(value) == "" {
		delete(g.values, key)
		return HubSettings{}, false
	}
	g.values[key] = value

	for _, k := range requiredKeys {
		if _, ok := g.values[k]; !ok {
			return HubSettings{}, false
		}
	}

	g.settings = HubSettings{
		URL:      g.values[KeyURL],
		Username: g.values[KeyUsername],
		Password: g.values[KeyPassword],
	}
	g.state = GateLocked
	return g.settings, true
}

// State returns the current gate state.
func (g *ConfigGate) State() GateState {
	return g.state
}

// Settings returns the locked settings. ok is false while collecting.
func (g *ConfigGate) Settings() (HubSettings, bool) {
	return g.settings, g.state == GateLocked
}

// Missing lists required keys not yet received.
func (g *ConfigGate) Missing() []string {
	if g.state == GateLocked {
		return nil
	}
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := g.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

package bridge

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultDevicePrefix names hub devices on the bus as zwave-<id>.
const DefaultDevicePrefix = "zwave"

// Topics formats and parses the device topic namespace.
//
//	/devices/<prefix>-<id>/controls/<control>             value (retained)
//	/devices/<prefix>-<id>/controls/<control>/meta/<attr> metadata (retained)
//	/devices/<prefix>-<id>/controls/<control>/on          inbound command
//	/events/<prefix>-<id>/<name>                          event (not retained)
type Topics struct {
	prefix  string
	command *regexp.Regexp
}

// NewTopics returns a Topics for the given device prefix.
// An empty prefix selects DefaultDevicePrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultDevicePrefix
	}
	return Topics{
		prefix:  prefix,
		command: regexp.MustCompile(`^/devices/` + regexp.QuoteMeta(prefix) + `-(\d+)/controls/([^/]+)/on$`),
	}
}

// DeviceName returns the bus name of a hub device, e.g. "zwave-12".
func (t Topics) DeviceName(id int) string {
	return fmt.Sprintf("%s-%d", t.prefix, id)
}

// Control returns the value topic of a control.
func (t Topics) Control(id int, control string) string {
	return fmt.Sprintf("/devices/%s/controls/%s", t.DeviceName(id), control)
}

// ControlMeta returns a metadata topic of a control.
func (t Topics) ControlMeta(id int, control, attr string) string {
	return t.Control(id, control) + "/meta/" + attr
}

// ControlCommand returns the inbound command topic of a control.
func (t Topics) ControlCommand(id int, control string) string {
	return t.Control(id, control) + "/on"
}

// Event returns the one-shot event topic for a device.
func (t Topics) Event(id int, name string) string {
	return fmt.Sprintf("/events/%s/%s", t.DeviceName(id), name)
}

// CommandSubscription is the wildcard filter covering every command topic.
func (Topics) CommandSubscription() string {
	return "/devices/+/controls/+/on"
}

// ParseCommand extracts the device id and control from a command topic.
// ok is false for anything that is not a command for this prefix.
func (t Topics) ParseCommand(topic string) (id int, control string, ok bool) {
	m := t.command.FindStringSubmatch(topic)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return id, m[2], true
}

// ConfigSubscription is the filter for configuration keys of a bridge instance.
func ConfigSubscription(systemID string) string {
	return fmt.Sprintf("/sys/%s/+", systemID)
}

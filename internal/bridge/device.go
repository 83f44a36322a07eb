package bridge

import (
	"maps"
	"strconv"

	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
)

// Kind identifies a handler variant.
type Kind string

// Handler variants.
const (
	KindBinaryLight       Kind = "binary_light"
	KindDimmableLight     Kind = "dimmable_light"
	KindTemperatureSensor Kind = "temperature_sensor"
	KindDoorSensor        Kind = "door_sensor"
)

// Property and control names shared by the variants.
const (
	propValue        = "value"
	propValueSensor  = "valueSensor"
	propDead         = "dead"
	propBatteryLevel = "batteryLevel"

	controlSwitch       = "switch"
	controlPower        = "power"
	controlTemperature  = "temperature"
	controlDoor         = "door"
	controlBatteryLevel = "battery-level"

	metaType = "type"
	metaMax  = "max"

	typeText   = "text"
	typeSwitch = "switch"
	typeRange  = "range"
)

// Handler translates one hub device to and from the bus.
//
// The set of implementations is closed: BinaryLight, DimmableLight,
// TemperatureSensor and DoorSensor. Handlers are only called from the
// bridge event loop and need no locking.
type Handler interface {
	// ID returns the hub device id.
	ID() int

	// Kind returns the variant.
	Kind() Kind

	// Initialise publishes metadata and the full known state. It is
	// called once, at enumeration.
	Initialise(props fibaro.Properties)

	// ApplyUpdate publishes only the fields present in a change record.
	ApplyUpdate(fields fibaro.Properties)

	// Handle processes an inbound command for one control.
	Handle(control, payload string)

	// Snapshot returns the last published control values.
	Snapshot() DeviceSnapshot

	handler()
}

// DeviceSnapshot is a read-only view of a handler for status reporting.
type DeviceSnapshot struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Kind     Kind              `json:"kind"`
	Dead     bool              `json:"dead"`
	Controls map[string]string `json:"controls"`
}

// deviceEnv carries the collaborators every handler needs.
type deviceEnv struct {
	topics  Topics
	pub     Publisher
	actions Actions
	logger  Logger
}

// deviceBase is the behaviour shared by every variant. Variants hold it as
// a named field and call it explicitly.
type deviceBase struct {
	id       int
	kind     Kind
	env      deviceEnv
	dead     bool
	controls map[string]string
}

func newDeviceBase(id int, kind Kind, env deviceEnv) deviceBase {
	if env.logger == nil {
		env.logger = nopLogger{}
	}
	return deviceBase{
		id:       id,
		kind:     kind,
		env:      env,
		controls: make(map[string]string),
	}
}

// initialise handles the dead flag and battery level on first sight.
// canWake selects whether a dead device gets a wake request.
func (d *deviceBase) initialise(props fibaro.Properties, canWake bool) {
	d.checkDead(props, canWake)

	if level, ok := props.Get(propBatteryLevel); ok {
		d.publishMeta(controlBatteryLevel, metaType, typeText)
		d.publishState(controlBatteryLevel, level)
	}
}

// applyUpdate is initialise's counterpart for partial change records.
func (d *deviceBase) applyUpdate(fields fibaro.Properties, canWake bool) {
	d.checkDead(fields, canWake)

	if level, ok := fields.Get(propBatteryLevel); ok {
		d.publishState(controlBatteryLevel, level)
	}
}

// handle is the default command behaviour: log and ignore.
func (d *deviceBase) handle(control, payload string) {
	d.env.logger.Debug("command ignored",
		"device", d.env.topics.DeviceName(d.id),
		"control", control,
		"payload", payload)
}

func (d *deviceBase) checkDead(props fibaro.Properties, canWake bool) {
	v, ok := props.Get(propDead)
	if !ok {
		return
	}
	d.dead = v == "1"
	if !d.dead {
		return
	}

	d.env.logger.Warn("device is dead", "device", d.env.topics.DeviceName(d.id))
	if canWake && d.env.actions != nil {
		d.env.actions.Call(controllerDeviceID, ActionWakeUpDeadDevice, map[string]string{
			"arg1": strconv.Itoa(d.id),
		})
	}
}

func (d *deviceBase) publishState(control, value string) {
	d.controls[control] = value
	d.env.pub.PublishState(d.id, control, value)
}

func (d *deviceBase) publishMeta(control, attr, value string) {
	d.env.pub.PublishMeta(d.id, control, attr, value)
}

func (d *deviceBase) publishEvent(name, value string) {
	d.env.pub.PublishEvent(d.id, name, value)
}

func (d *deviceBase) call(name string, args map[string]string) {
	if d.env.actions == nil {
		return
	}
	d.env.actions.Call(d.id, name, args)
}

func (d *deviceBase) snapshot() DeviceSnapshot {
	return DeviceSnapshot{
		ID:       d.id,
		Name:     d.env.topics.DeviceName(d.id),
		Kind:     d.kind,
		Dead:     d.dead,
		Controls: maps.Clone(d.controls),
	}
}

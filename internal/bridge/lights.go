package bridge

import (
	"strconv"
	"strings"

	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
)

// dimmerMax is the top of the hub's multilevel switch range.
const dimmerMax = "99"

// BinaryLight is an on/off switch, optionally with power metering.
type BinaryLight struct {
	base deviceBase
}

// NewBinaryLight returns a handler for an on/off switch.
func NewBinaryLight(id int, env deviceEnv) *BinaryLight {
	return &BinaryLight{base: newDeviceBase(id, KindBinaryLight, env)}
}

func (l *BinaryLight) ID() int    { return l.base.id }
func (l *BinaryLight) Kind() Kind { return l.base.kind }
func (l *BinaryLight) handler()   {}

func (l *BinaryLight) Initialise(props fibaro.Properties) {
	l.base.initialise(props, true)
	initialiseLight(&l.base, props, typeSwitch)
}

func (l *BinaryLight) ApplyUpdate(fields fibaro.Properties) {
	l.base.applyUpdate(fields, true)
	updateLight(&l.base, fields)
}

// Handle turns the light off for "0" and on for anything else.
func (l *BinaryLight) Handle(control, payload string) {
	if control != controlSwitch {
		l.base.handle(control, payload)
		return
	}

	if payload == "0" {
		l.base.call(ActionTurnOff, nil)
		return
	}
	l.base.call(ActionTurnOn, nil)
}

func (l *BinaryLight) Snapshot() DeviceSnapshot { return l.base.snapshot() }

// DimmableLight is a multilevel switch with a 0..99 range.
type DimmableLight struct {
	base deviceBase
}

// NewDimmableLight returns a handler for a multilevel switch.
func NewDimmableLight(id int, env deviceEnv) *DimmableLight {
	return &DimmableLight{base: newDeviceBase(id, KindDimmableLight, env)}
}

func (l *DimmableLight) ID() int    { return l.base.id }
func (l *DimmableLight) Kind() Kind { return l.base.kind }
func (l *DimmableLight) handler()   {}

func (l *DimmableLight) Initialise(props fibaro.Properties) {
	l.base.initialise(props, true)
	initialiseLight(&l.base, props, typeRange)
	l.base.publishMeta(controlSwitch, metaMax, dimmerMax)
}

func (l *DimmableLight) ApplyUpdate(fields fibaro.Properties) {
	l.base.applyUpdate(fields, true)
	updateLight(&l.base, fields)
}

// Handle sets the level from an integer payload. Anything that does not
// parse as an integer is dropped.
func (l *DimmableLight) Handle(control, payload string) {
	if control != controlSwitch {
		l.base.handle(control, payload)
		return
	}

	level, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		l.base.env.logger.Debug("invalid dimmer level",
			"device", l.base.env.topics.DeviceName(l.base.id),
			"payload", payload)
		return
	}
	l.base.call(ActionSetValue, map[string]string{"arg1": strconv.Itoa(level)})
}

func (l *DimmableLight) Snapshot() DeviceSnapshot { return l.base.snapshot() }

// initialiseLight publishes power metering (when present) and the switch
// control with the given metadata type.
func initialiseLight(d *deviceBase, props fibaro.Properties, switchType string) {
	if power, ok := props.Get(propValueSensor); ok {
		d.publishMeta(controlPower, metaType, typeText)
		d.publishState(controlPower, power)
	}

	d.publishMeta(controlSwitch, metaType, switchType)
	if value, ok := props.Get(propValue); ok {
		d.publishState(controlSwitch, value)
	}
}

func updateLight(d *deviceBase, fields fibaro.Properties) {
	if power, ok := fields.Get(propValueSensor); ok {
		d.publishState(controlPower, power)
	}
	if value, ok := fields.Get(propValue); ok {
		d.publishState(controlSwitch, value)
	}
}

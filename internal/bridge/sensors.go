package bridge

import (
	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
)

// Door states published on the door control.
const (
	DoorOpen   = "open"
	DoorClosed = "closed"
)

// TemperatureSensor mirrors a temperature reading.
type TemperatureSensor struct {
	base deviceBase
}

// NewTemperatureSensor returns a handler for a temperature sensor.
func NewTemperatureSensor(id int, env deviceEnv) *TemperatureSensor {
	return &TemperatureSensor{base: newDeviceBase(id, KindTemperatureSensor, env)}
}

func (s *TemperatureSensor) ID() int    { return s.base.id }
func (s *TemperatureSensor) Kind() Kind { return s.base.kind }
func (s *TemperatureSensor) handler()   {}

func (s *TemperatureSensor) Initialise(props fibaro.Properties) {
	s.base.initialise(props, false)

	s.base.publishMeta(controlTemperature, metaType, typeText)
	if value, ok := props.Get(propValue); ok {
		s.base.publishState(controlTemperature, value)
	}
}

func (s *TemperatureSensor) ApplyUpdate(fields fibaro.Properties) {
	s.base.applyUpdate(fields, false)

	if value, ok := fields.Get(propValue); ok {
		s.base.publishState(controlTemperature, value)
	}
}

func (s *TemperatureSensor) Handle(control, payload string) {
	s.base.handle(control, payload)
}

func (s *TemperatureSensor) Snapshot() DeviceSnapshot { return s.base.snapshot() }

// DoorSensor mirrors a contact sensor as open/closed and emits an event on
// every change of the raw value.
type DoorSensor struct {
	base deviceBase

	// last raw value seen; known is false until one arrives.
	last  string
	known bool
}

// NewDoorSensor returns a handler for a door or window contact.
func NewDoorSensor(id int, env deviceEnv) *DoorSensor {
	return &DoorSensor{base: newDeviceBase(id, KindDoorSensor, env)}
}

func (s *DoorSensor) ID() int    { return s.base.id }
func (s *DoorSensor) Kind() Kind { return s.base.kind }
func (s *DoorSensor) handler()   {}

func (s *DoorSensor) Initialise(props fibaro.Properties) {
	s.base.initialise(props, false)

	s.base.publishMeta(controlDoor, metaType, typeText)
	if value, ok := props.Get(propValue); ok {
		s.base.publishState(controlDoor, doorState(value))
		s.last, s.known = value, true
	}
}

// ApplyUpdate republishes the state on every value and emits an event only
// when the raw value differs from the remembered one.
func (s *DoorSensor) ApplyUpdate(fields fibaro.Properties) {
	s.base.applyUpdate(fields, false)

	value, ok := fields.Get(propValue)
	if !ok {
		return
	}

	state := doorState(value)
	s.base.publishState(controlDoor, state)

	if !s.known || value != s.last {
		s.base.publishEvent(controlDoor, state)
		s.last, s.known = value, true
	}
}

func (s *DoorSensor) Handle(control, payload string) {
	s.base.handle(control, payload)
}

func (s *DoorSensor) Snapshot() DeviceSnapshot { return s.base.snapshot() }

func doorState(value string) string {
	if value == "0" {
		return DoorClosed
	}
	return DoorOpen
}

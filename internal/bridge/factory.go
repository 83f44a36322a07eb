package bridge

// typeKinds maps hub type strings to handler variants. The dotted names
// are what newer hub firmware reports for the same device classes.
var typeKinds = map[string]Kind{
	"binary_light":       KindBinaryLight,
	"dimmable_light":     KindDimmableLight,
	"temperature_sensor": KindTemperatureSensor,
	"door_sensor":        KindDoorSensor,

	"com.fibaro.binarySwitch":      KindBinaryLight,
	"com.fibaro.multilevelSwitch":  KindDimmableLight,
	"com.fibaro.temperatureSensor": KindTemperatureSensor,
	"com.fibaro.doorSensor":        KindDoorSensor,
	"com.fibaro.doorWindowSensor":  KindDoorSensor,
}

// ResolveKind returns the variant for a hub type string.
func ResolveKind(hubType string) (Kind, bool) {
	k, ok := typeKinds[hubType]
	return k, ok
}

// NewHandler builds the handler for a hub device. ok is false for
// unrecognised types, which the bridge skips.
func NewHandler(hubType string, id int, env deviceEnv) (Handler, bool) {
	kind, ok := ResolveKind(hubType)
	if !ok {
		return nil, false
	}

	switch kind {
	case KindBinaryLight:
		return NewBinaryLight(id, env), true
	case KindDimmableLight:
		return NewDimmableLight(id, env), true
	case KindTemperatureSensor:
		return NewTemperatureSensor(id, env), true
	case KindDoorSensor:
		return NewDoorSensor(id, env), true
	default:
		return nil, false
	}
}

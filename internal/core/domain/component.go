package domain

const (
	SENSOR_ID_BRIDGE_STATE    = "bridge"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
)

type Device struct {
	Id            string
	Name          string
	Version       string
	Model         string
	Manufacturer  string
	ViaDevice     string
	SuggestedArea string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement
	DeviceClass       string // temperature, connectivity
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
	HasAttributes     bool
}

type GenericClimate struct {
	Device          Device
	Id              string
	Name            string
	UniqueId        string
	Modes           []string
	MinTemp         float64
	MaxTemp         float64
	TemperatureUnit string
}

type GenericCover struct {
	Device      Device
	Id          string
	Name        string
	UniqueId    string
	DeviceClass string
	CanStop     bool
}

type GenericFan struct {
	Device     Device
	Id         string
	Name       string
	UniqueId   string
	SpeedCount int
}

// DiscoveryComponents is everything announced to Home Assistant in one go.
type DiscoveryComponents struct {
	Sensors  []GenericSensor
	Climates []GenericClimate
	Covers   []GenericCover
	Fans     []GenericFan
}

func (c DiscoveryComponents) Count() int {
	return len(c.Sensors) + len(c.Climates) + len(c.Covers) + len(c.Fans)
}

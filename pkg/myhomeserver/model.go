package myhomeserver

import "context"

// thermostat modes
const (
	ModeHot = "HOT"
	ModeOff = "OFF"
)

// shutter move directions
const (
	MoveUp   = "UP"
	MoveDown = "DOWN"
	MoveStop = "STOP"
)

// object types as exposed by the server
const (
	ObjectTypeThermostat = "thermostat"
	ObjectTypeShutter    = "shutter"
	ObjectTypeFancoil    = "fancoil"
)

type Room struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type Zone struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

// ObjectInfo holds the optional protocol attributes of an object
// (protocol_name, protocol_config, id_room, id_zone, ...).
type ObjectInfo map[string]any

type ThermostatValue struct {
	Temperature float64 `json:"temperature"`
	Setpoint    float64 `json:"setpoint"`
	Mode        string  `json:"mode"`
}

type ShutterValue struct {
	Move string `json:"move"`
}

type FancoilValue struct {
	Power bool    `json:"power"`
	Fan   float64 `json:"fan"`
}

// Object is the static part of every device known by the hub.
// Room and Zone are nil when the object is not assigned to one.
type Object interface {
	Id() int
	Name() string
	Room() *Room
	Zone() *Zone
	ObjectInfo() ObjectInfo
}

type Thermostat interface {
	Object
	GetValue(ctx context.Context) (*ThermostatValue, error)
	SetTemperature(ctx context.Context, temperature float64) error
	SetMode(ctx context.Context, mode string) error
}

type Shutter interface {
	Object
	GetValue(ctx context.Context) (*ShutterValue, error)
	MoveUp(ctx context.Context) error
	MoveDown(ctx context.Context) error
	MoveStop(ctx context.Context) error
}

type Fancoil interface {
	Object
	GetValue(ctx context.Context) (*FancoilValue, error)
	SwitchOn(ctx context.Context) error
	SwitchOff(ctx context.Context) error
	SetFanSpeed(ctx context.Context, speed float64) error
}

// Hub is an authenticated handle to one MyHOMEServer.
type Hub interface {
	GetServerSerial(ctx context.Context) (string, error)
	Thermostats(ctx context.Context) ([]Thermostat, error)
	Blinds(ctx context.Context) ([]Shutter, error)
	Fans(ctx context.Context) ([]Fancoil, error)
}

// objectDescriptor is the wire representation of an object listing entry
type objectDescriptor struct {
	Id         int        `json:"id"`
	Name       string     `json:"name"`
	Room       *Room      `json:"room,omitempty"`
	Zone       *Zone      `json:"zone,omitempty"`
	ObjectInfo ObjectInfo `json:"object_info,omitempty"`
}

type systemInfo struct {
	Serial string `json:"serial"`
}

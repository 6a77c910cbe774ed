package domain

import "context"

type HVACMode string

type HVACAction string

type CoverState string

type CoverAction string

const (
	HVAC_MODE_HEAT HVACMode = "heat"
	HVAC_MODE_OFF  HVACMode = "off"

	HVAC_ACTION_HEAT HVACAction = "heating"
	HVAC_ACTION_IDLE HVACAction = "idle"

	COVER_OPENING CoverState = "opening"
	COVER_CLOSING CoverState = "closing"

	COVER_OPEN  CoverAction = "OPEN"
	COVER_CLOSE CoverAction = "CLOSE"
	COVER_STOP  CoverAction = "STOP"
)

const (
	DEVICE_CLASS_BLIND       = "blind"
	DEVICE_CLASS_TEMPERATURE = "temperature"
	STATE_CLASS_MEASUREMENT  = "measurement"
)

// supported feature flags
const (
	SUPPORT_TARGET_TEMPERATURE = 1

	COVER_SUPPORT_OPEN  = 1
	COVER_SUPPORT_CLOSE = 2
	COVER_SUPPORT_STOP  = 8

	FAN_SUPPORT_SET_SPEED = 1
)

// TemperatureReader exposes a measured temperature. A nil value means unknown.
type TemperatureReader interface {
	CurrentTemperature() *float64
	TemperatureUnit() string
}

type ClimateController interface {
	TemperatureReader
	TargetTemperature() *float64
	MinTemp() float64
	MaxTemp() float64
	HVACModes() []HVACMode
	// HVACMode returns "" while unknown.
	HVACMode() HVACMode
	HVACAction() HVACAction
	SupportedFeatures() int
	SetTemperature(ctx context.Context, temperature float64) error
	SetHVACMode(ctx context.Context, mode HVACMode) error
}

type CoverController interface {
	DeviceClass() string
	SupportedFeatures() int
	// CoverState returns "" while unknown.
	CoverState() CoverState
	OpenCover(ctx context.Context) error
	CloseCover(ctx context.Context) error
	StopCover(ctx context.Context) error
}

type FanController interface {
	SupportedFeatures() int
	IsOn() bool
	Percentage() *int
	SpeedCount() int
	TurnOn(ctx context.Context, percentage *int) error
	TurnOff(ctx context.Context) error
	SetPercentage(ctx context.Context, percentage int) error
}

type MeasurementSensor interface {
	DeviceClass() string
	StateClass() string
	NativeUnitOfMeasurement() string
	NativeValue() *float64
}

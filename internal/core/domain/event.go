package domain

import "fmt"

type SensorUpdateEventMixIn struct {
	Id string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// Nil pointers and empty strings are published as unknown.
type ClimateStateUpdateEvent struct {
	SensorUpdateEventMixIn
	CurrentTemperature *float64
	TargetTemperature  *float64
	Mode               HVACMode
	Action             HVACAction
}

type CoverStateUpdateEvent struct {
	SensorUpdateEventMixIn
	State CoverState
}

type FanStateUpdateEvent struct {
	SensorUpdateEventMixIn
	On         bool
	Percentage *int
}

type AttributesUpdateEvent struct {
	SensorUpdateEventMixIn
	Platform   string
	Attributes map[string]any
}

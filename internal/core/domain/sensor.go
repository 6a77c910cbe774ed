package domain

import (
	"context"
	"fmt"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
)

// TemperatureSensorEntity exposes the thermostat temperature as a standalone
// measurement sensor.
type TemperatureSensorEntity struct {
	baseEntity
	thermostat myhomeserver.Thermostat
	value      *myhomeserver.ThermostatValue
}

func NewTemperatureSensorEntity(serial string, thermostat myhomeserver.Thermostat) *TemperatureSensorEntity {
	return &TemperatureSensorEntity{
		baseEntity: newBaseEntity(serial, thermostat, fmt.Sprintf("%s_%d_temp", serial, thermostat.Id())),
		thermostat: thermostat,
	}
}

func (e *TemperatureSensorEntity) Platform() string {
	return PLATFORM_SENSOR
}

func (e *TemperatureSensorEntity) HasValue() bool {
	return e.value != nil
}

func (e *TemperatureSensorEntity) Update(ctx context.Context) error {
	value, err := e.thermostat.GetValue(ctx)
	if err != nil {
		return err
	}
	e.value = value
	return nil
}

func (e *TemperatureSensorEntity) DeviceClass() string {
	return DEVICE_CLASS_TEMPERATURE
}

func (e *TemperatureSensorEntity) StateClass() string {
	return STATE_CLASS_MEASUREMENT
}

func (e *TemperatureSensorEntity) NativeUnitOfMeasurement() string {
	return TEMP_CELSIUS
}

func (e *TemperatureSensorEntity) NativeValue() *float64 {
	if e.value == nil {
		return nil
	}
	return floatPtr(e.value.Temperature)
}

// ensure interface compliance
var (
	_ Entity            = (*TemperatureSensorEntity)(nil)
	_ MeasurementSensor = (*TemperatureSensorEntity)(nil)
)

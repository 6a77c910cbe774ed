package domain

import (
	"context"
	"fmt"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
)

const (
	THERMOSTAT_MIN_TEMP = 16.0
	THERMOSTAT_MAX_TEMP = 25.0
)

type ThermostatEntity struct {
	baseEntity
	thermostat myhomeserver.Thermostat
	value      *myhomeserver.ThermostatValue
}

func NewThermostatEntity(serial string, thermostat myhomeserver.Thermostat) *ThermostatEntity {
	return &ThermostatEntity{
		baseEntity: newBaseEntity(serial, thermostat, fmt.Sprintf("%s_%d_temp", serial, thermostat.Id())),
		thermostat: thermostat,
	}
}

func (e *ThermostatEntity) Platform() string {
	return PLATFORM_CLIMATE
}

func (e *ThermostatEntity) HasValue() bool {
	return e.value != nil
}

func (e *ThermostatEntity) Update(ctx context.Context) error {
	value, err := e.thermostat.GetValue(ctx)
	if err != nil {
		return err
	}
	e.value = value
	return nil
}

func (e *ThermostatEntity) TemperatureUnit() string {
	return TEMP_CELSIUS
}

func (e *ThermostatEntity) CurrentTemperature() *float64 {
	if e.value == nil {
		return nil
	}
	return floatPtr(e.value.Temperature)
}

// TargetTemperature is only known while the thermostat is heating.
func (e *ThermostatEntity) TargetTemperature() *float64 {
	if e.value == nil || e.value.Mode != myhomeserver.ModeHot {
		return nil
	}
	return floatPtr(e.value.Setpoint)
}

func (e *ThermostatEntity) MinTemp() float64 {
	return THERMOSTAT_MIN_TEMP
}

func (e *ThermostatEntity) MaxTemp() float64 {
	return THERMOSTAT_MAX_TEMP
}

func (e *ThermostatEntity) HVACModes() []HVACMode {
	return []HVACMode{HVAC_MODE_HEAT, HVAC_MODE_OFF}
}

func (e *ThermostatEntity) HVACMode() HVACMode {
	if e.value == nil {
		return ""
	}
	if e.value.Mode == myhomeserver.ModeHot {
		return HVAC_MODE_HEAT
	}
	return HVAC_MODE_OFF
}

func (e *ThermostatEntity) HVACAction() HVACAction {
	if e.value != nil && e.value.Mode == myhomeserver.ModeHot {
		return HVAC_ACTION_HEAT
	}
	return HVAC_ACTION_IDLE
}

func (e *ThermostatEntity) SupportedFeatures() int {
	return SUPPORT_TARGET_TEMPERATURE
}

func (e *ThermostatEntity) SetTemperature(ctx context.Context, temperature float64) error {
	return e.thermostat.SetTemperature(ctx, temperature)
}

func (e *ThermostatEntity) SetHVACMode(ctx context.Context, mode HVACMode) error {
	if mode == HVAC_MODE_HEAT {
		return e.thermostat.SetMode(ctx, myhomeserver.ModeHot)
	}
	return e.thermostat.SetMode(ctx, myhomeserver.ModeOff)
}

// ensure interface compliance
var (
	_ Entity            = (*ThermostatEntity)(nil)
	_ ClimateController = (*ThermostatEntity)(nil)
)

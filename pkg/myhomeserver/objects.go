package myhomeserver

import (
	"context"
	"fmt"
)

type httpObject struct {
	desc   objectDescriptor
	client *httpClient
}

func (o *httpObject) Id() int {
	return o.desc.Id
}

func (o *httpObject) Name() string {
	return o.desc.Name
}

func (o *httpObject) Room() *Room {
	return o.desc.Room
}

func (o *httpObject) Zone() *Zone {
	return o.desc.Zone
}

func (o *httpObject) ObjectInfo() ObjectInfo {
	return o.desc.ObjectInfo
}

func (o *httpObject) valuePath() string {
	return fmt.Sprintf("/api/objects/%d/value", o.desc.Id)
}

func (o *httpObject) getValue(ctx context.Context, out any) error {
	return o.client.get(ctx, "GetValue", o.valuePath(), nil, out)
}

func (o *httpObject) setValue(ctx context.Context, fnName string, partial map[string]any) error {
	return o.client.post(ctx, fnName, o.valuePath(), partial)
}

// Thermostat

type httpThermostat struct {
	httpObject
}

func (t *httpThermostat) GetValue(ctx context.Context) (*ThermostatValue, error) {
	var v ThermostatValue
	if err := t.getValue(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (t *httpThermostat) SetTemperature(ctx context.Context, temperature float64) error {
	return t.setValue(ctx, "SetTemperature", map[string]any{"setpoint": temperature})
}

func (t *httpThermostat) SetMode(ctx context.Context, mode string) error {
	return t.setValue(ctx, "SetMode", map[string]any{"mode": mode})
}

// Shutter

type httpShutter struct {
	httpObject
}

func (s *httpShutter) GetValue(ctx context.Context) (*ShutterValue, error) {
	var v ShutterValue
	if err := s.getValue(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *httpShutter) MoveUp(ctx context.Context) error {
	return s.setValue(ctx, "MoveUp", map[string]any{"move": MoveUp})
}

func (s *httpShutter) MoveDown(ctx context.Context) error {
	return s.setValue(ctx, "MoveDown", map[string]any{"move": MoveDown})
}

func (s *httpShutter) MoveStop(ctx context.Context) error {
	return s.setValue(ctx, "MoveStop", map[string]any{"move": MoveStop})
}

// Fancoil

type httpFancoil struct {
	httpObject
}

func (f *httpFancoil) GetValue(ctx context.Context) (*FancoilValue, error) {
	var v FancoilValue
	if err := f.getValue(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (f *httpFancoil) SwitchOn(ctx context.Context) error {
	return f.setValue(ctx, "SwitchOn", map[string]any{"power": true})
}

func (f *httpFancoil) SwitchOff(ctx context.Context) error {
	return f.setValue(ctx, "SwitchOff", map[string]any{"power": false})
}

func (f *httpFancoil) SetFanSpeed(ctx context.Context, speed float64) error {
	return f.setValue(ctx, "SetFanSpeed", map[string]any{"fan": speed})
}

// ensure interface compliance
var (
	_ Thermostat = (*httpThermostat)(nil)
	_ Shutter    = (*httpShutter)(nil)
	_ Fancoil    = (*httpFancoil)(nil)
)

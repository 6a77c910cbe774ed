package myhomeserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrTestObjectOffline = errors.New("myhomeserver: test object offline")

// TestHub is an in-memory hub used by tests. Values and recorded calls are
// guarded by a mutex since pollers read them from background goroutines.
type TestHub struct {
	mu          sync.Mutex
	Serial      string
	thermostats []*TestThermostat
	shutters    []*TestShutter
	fancoils    []*TestFancoil
	calls       []string
}

func NewTestHub() *TestHub {
	hub := &TestHub{Serial: "MHS1-0042"}
	upstairs := &Zone{Id: 1, Name: "Upstairs"}

	hub.thermostats = []*TestThermostat{{
		testObject: testObject{hub: hub, id: 11, name: "Bedroom thermostat",
			room: &Room{Id: 2, Name: "Upstairs Bedroom"}, zone: upstairs,
			info: ObjectInfo{"protocol_name": "SCS", "protocol_config": "WHERE=1", "id_room": 2, "id_zone": 1, "noise": "x"}},
		value: &ThermostatValue{Temperature: 20.5, Setpoint: 21, Mode: ModeHot},
	}}
	hub.shutters = []*TestShutter{{
		testObject: testObject{hub: hub, id: 21, name: "Bedroom blind",
			room: &Room{Id: 2, Name: "Upstairs Bedroom"}, zone: upstairs,
			info: ObjectInfo{"protocol_name": "SCS"}},
		value: &ShutterValue{Move: MoveStop},
	}}
	hub.fancoils = []*TestFancoil{{
		testObject: testObject{hub: hub, id: 31, name: "Living fan coil",
			room: &Room{Id: 3, Name: "Living"}},
		value: &FancoilValue{Power: true, Fan: 2},
	}}
	return hub
}

func (h *TestHub) GetServerSerial(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Serial, nil
}

func (h *TestHub) Thermostats(ctx context.Context) ([]Thermostat, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	objs := make([]Thermostat, 0, len(h.thermostats))
	for _, t := range h.thermostats {
		objs = append(objs, t)
	}
	return objs, nil
}

func (h *TestHub) Blinds(ctx context.Context) ([]Shutter, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	objs := make([]Shutter, 0, len(h.shutters))
	for _, s := range h.shutters {
		objs = append(objs, s)
	}
	return objs, nil
}

func (h *TestHub) Fans(ctx context.Context) ([]Fancoil, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	objs := make([]Fancoil, 0, len(h.fancoils))
	for _, f := range h.fancoils {
		objs = append(objs, f)
	}
	return objs, nil
}

// Calls returns the mutator calls received so far, formatted as "id:Call(arg)".
func (h *TestHub) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *TestHub) record(id int, call string) {
	h.calls = append(h.calls, fmt.Sprintf("%d:%s", id, call))
}

func (h *TestHub) TestThermostat(i int) *TestThermostat {
	return h.thermostats[i]
}

func (h *TestHub) TestShutter(i int) *TestShutter {
	return h.shutters[i]
}

func (h *TestHub) TestFancoil(i int) *TestFancoil {
	return h.fancoils[i]
}

type testObject struct {
	hub     *TestHub
	id      int
	name    string
	room    *Room
	zone    *Zone
	info    ObjectInfo
	offline bool
	stall   chan struct{}
}

func (o *testObject) Id() int                { return o.id }
func (o *testObject) Name() string           { return o.name }
func (o *testObject) Room() *Room            { return o.room }
func (o *testObject) Zone() *Zone            { return o.zone }
func (o *testObject) ObjectInfo() ObjectInfo { return o.info }

// SetOffline makes every following call on the object fail.
func (o *testObject) SetOffline(offline bool) {
	o.hub.mu.Lock()
	defer o.hub.mu.Unlock()
	o.offline = offline
}

// Stall makes value reads block, ignoring their context, until release is
// closed.
func (o *testObject) Stall(release chan struct{}) {
	o.hub.mu.Lock()
	defer o.hub.mu.Unlock()
	o.stall = release
}

func (o *testObject) waitStall() {
	o.hub.mu.Lock()
	stall := o.stall
	o.hub.mu.Unlock()
	if stall != nil {
		<-stall
	}
}

func (o *testObject) call(name string) error {
	o.hub.mu.Lock()
	defer o.hub.mu.Unlock()
	if o.offline {
		return ErrTestObjectOffline
	}
	o.hub.record(o.id, name)
	return nil
}

// TestThermostat

type TestThermostat struct {
	testObject
	value *ThermostatValue
}

func (t *TestThermostat) SetTestValue(v *ThermostatValue) {
	t.hub.mu.Lock()
	defer t.hub.mu.Unlock()
	t.value = v
}

func (t *TestThermostat) GetValue(ctx context.Context) (*ThermostatValue, error) {
	t.waitStall()
	t.hub.mu.Lock()
	defer t.hub.mu.Unlock()
	if t.offline {
		return nil, ErrTestObjectOffline
	}
	v := *t.value
	return &v, nil
}

func (t *TestThermostat) SetTemperature(ctx context.Context, temperature float64) error {
	return t.call(fmt.Sprintf("SetTemperature(%.1f)", temperature))
}

func (t *TestThermostat) SetMode(ctx context.Context, mode string) error {
	return t.call(fmt.Sprintf("SetMode(%s)", mode))
}

// TestShutter

type TestShutter struct {
	testObject
	value *ShutterValue
}

func (s *TestShutter) SetTestValue(v *ShutterValue) {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.value = v
}

func (s *TestShutter) GetValue(ctx context.Context) (*ShutterValue, error) {
	s.waitStall()
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.offline {
		return nil, ErrTestObjectOffline
	}
	v := *s.value
	return &v, nil
}

func (s *TestShutter) MoveUp(ctx context.Context) error {
	return s.call("MoveUp()")
}

func (s *TestShutter) MoveDown(ctx context.Context) error {
	return s.call("MoveDown()")
}

func (s *TestShutter) MoveStop(ctx context.Context) error {
	return s.call("MoveStop()")
}

// TestFancoil

type TestFancoil struct {
	testObject
	value *FancoilValue
}

func (f *TestFancoil) SetTestValue(v *FancoilValue) {
	f.hub.mu.Lock()
	defer f.hub.mu.Unlock()
	f.value = v
}

func (f *TestFancoil) GetValue(ctx context.Context) (*FancoilValue, error) {
	f.waitStall()
	f.hub.mu.Lock()
	defer f.hub.mu.Unlock()
	if f.offline {
		return nil, ErrTestObjectOffline
	}
	v := *f.value
	return &v, nil
}

func (f *TestFancoil) SwitchOn(ctx context.Context) error {
	return f.call("SwitchOn()")
}

func (f *TestFancoil) SwitchOff(ctx context.Context) error {
	return f.call("SwitchOff()")
}

func (f *TestFancoil) SetFanSpeed(ctx context.Context, speed float64) error {
	return f.call(fmt.Sprintf("SetFanSpeed(%.1f)", speed))
}

// ensure interface compliance
var (
	_ Hub        = (*TestHub)(nil)
	_ Thermostat = (*TestThermostat)(nil)
	_ Shutter    = (*TestShutter)(nil)
	_ Fancoil    = (*TestFancoil)(nil)
)

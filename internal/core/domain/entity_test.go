package domain

import (
	"context"
	"testing"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntities(t *testing.T) (*myhomeserver.TestHub, []Entity) {
	hub := myhomeserver.NewTestHub()
	ctx := context.Background()
	thermostats, err := hub.Thermostats(ctx)
	require.NoError(t, err)
	blinds, err := hub.Blinds(ctx)
	require.NoError(t, err)
	fans, err := hub.Fans(ctx)
	require.NoError(t, err)
	return hub, NewEntities(hub.Serial, thermostats, blinds, fans)
}

func TestNewEntities(t *testing.T) {

	require := require.New(t)

	_, entities := testEntities(t)
	require.Len(entities, 4)

	require.Equal(PLATFORM_CLIMATE, entities[0].Platform())
	require.Equal(PLATFORM_SENSOR, entities[1].Platform())
	require.Equal(PLATFORM_COVER, entities[2].Platform())
	require.Equal(PLATFORM_FAN, entities[3].Platform())

	require.Equal("MHS1-0042_11_temp", entities[0].UniqueId())
	require.Equal("MHS1-0042_11_temp", entities[1].UniqueId())
	require.Equal("MHS1-0042_21_cover", entities[2].UniqueId())
	require.Equal("MHS1-0042_31", entities[3].UniqueId())

	require.Equal("mhs1_0042_11_temp", entities[0].ObjectId())
	require.Equal("Bedroom thermostat", entities[0].Name())
}

func TestNewEntitiesEmptyHub(t *testing.T) {
	assert.Empty(t, NewEntities("serial", nil, nil, nil))
}

func TestDeviceInfo(t *testing.T) {

	require := require.New(t)

	_, entities := testEntities(t)

	info := entities[0].DeviceInfo()
	require.Equal([]string{"myhomeserver_MHS1-0042_11"}, info.Identifiers)
	require.Equal("Bedroom thermostat", info.Name)
	require.Equal(MANUFACTURER, info.Manufacturer)
	require.Equal("Upstairs / Bedroom", info.SuggestedArea)

	// fan coil has no zone
	info = entities[3].DeviceInfo()
	require.Empty(info.SuggestedArea)
}

func TestSuggestedArea(t *testing.T) {

	require := require.New(t)

	area, ok := SuggestedArea(&myhomeserver.Room{Name: "Ground Kitchen"}, &myhomeserver.Zone{Name: "Ground"})
	require.True(ok)
	require.Equal("Ground / Kitchen", area)

	// room name without the zone name is kept as is
	area, ok = SuggestedArea(&myhomeserver.Room{Name: "Kitchen"}, &myhomeserver.Zone{Name: "Ground"})
	require.True(ok)
	require.Equal("Ground / Kitchen", area)

	_, ok = SuggestedArea(nil, &myhomeserver.Zone{Name: "Ground"})
	require.False(ok)
	_, ok = SuggestedArea(&myhomeserver.Room{Name: "Kitchen"}, nil)
	require.False(ok)
}

func TestExtraStateAttributes(t *testing.T) {

	require := require.New(t)

	_, entities := testEntities(t)

	attrs := entities[0].ExtraStateAttributes()
	require.Equal(map[string]any{
		"protocol_name":   "SCS",
		"protocol_config": "WHERE=1",
		"id_room":         2,
		"id_zone":         1,
	}, attrs)

	attrs = entities[3].ExtraStateAttributes()
	require.Empty(attrs)
}

func TestUnknownBeforeFirstUpdate(t *testing.T) {

	require := require.New(t)

	_, entities := testEntities(t)

	climate := entities[0].(ClimateController)
	require.False(entities[0].HasValue())
	require.Nil(climate.CurrentTemperature())
	require.Nil(climate.TargetTemperature())
	require.Equal(HVACMode(""), climate.HVACMode())
	require.Equal(HVAC_ACTION_IDLE, climate.HVACAction())

	require.Nil(entities[1].(MeasurementSensor).NativeValue())
	require.Equal(CoverState(""), entities[2].(CoverController).CoverState())

	fan := entities[3].(FanController)
	require.False(fan.IsOn())
	require.Nil(fan.Percentage())
}

func TestThermostatState(t *testing.T) {

	require := require.New(t)
	ctx := context.Background()

	hub, entities := testEntities(t)
	climate := entities[0].(*ThermostatEntity)

	require.NoError(climate.Update(ctx))
	require.True(climate.HasValue())
	require.Equal(20.5, *climate.CurrentTemperature())
	require.Equal(21.0, *climate.TargetTemperature())
	require.Equal(HVAC_MODE_HEAT, climate.HVACMode())
	require.Equal(HVAC_ACTION_HEAT, climate.HVACAction())
	require.Equal(16.0, climate.MinTemp())
	require.Equal(25.0, climate.MaxTemp())
	require.Equal([]HVACMode{HVAC_MODE_HEAT, HVAC_MODE_OFF}, climate.HVACModes())
	require.Equal(SUPPORT_TARGET_TEMPERATURE, climate.SupportedFeatures())

	// target temperature is hidden when not heating
	hub.TestThermostat(0).SetTestValue(&myhomeserver.ThermostatValue{Temperature: 19, Setpoint: 21, Mode: myhomeserver.ModeOff})
	require.NoError(climate.Update(ctx))
	require.Equal(19.0, *climate.CurrentTemperature())
	require.Nil(climate.TargetTemperature())
	require.Equal(HVAC_MODE_OFF, climate.HVACMode())
	require.Equal(HVAC_ACTION_IDLE, climate.HVACAction())
}

func TestFailedUpdateKeepsSnapshot(t *testing.T) {

	require := require.New(t)
	ctx := context.Background()

	hub, entities := testEntities(t)
	sensor := entities[1].(*TemperatureSensorEntity)

	require.NoError(sensor.Update(ctx))
	hub.TestThermostat(0).SetOffline(true)
	require.ErrorIs(sensor.Update(ctx), myhomeserver.ErrTestObjectOffline)
	require.Equal(20.5, *sensor.NativeValue())
}

func TestTemperatureSensor(t *testing.T) {

	require := require.New(t)

	_, entities := testEntities(t)
	sensor := entities[1].(*TemperatureSensorEntity)

	require.NoError(sensor.Update(context.Background()))
	require.Equal(20.5, *sensor.NativeValue())
	require.Equal(DEVICE_CLASS_TEMPERATURE, sensor.DeviceClass())
	require.Equal(STATE_CLASS_MEASUREMENT, sensor.StateClass())
	require.Equal(TEMP_CELSIUS, sensor.NativeUnitOfMeasurement())
}

func TestCoverState(t *testing.T) {

	require := require.New(t)
	ctx := context.Background()

	hub, entities := testEntities(t)
	cover := entities[2].(*CoverEntity)
	shutter := hub.TestShutter(0)

	require.Equal(DEVICE_CLASS_BLIND, cover.DeviceClass())
	require.Equal(COVER_SUPPORT_OPEN|COVER_SUPPORT_CLOSE|COVER_SUPPORT_STOP, cover.SupportedFeatures())

	cases := map[string]CoverState{
		myhomeserver.MoveUp:   COVER_OPENING,
		myhomeserver.MoveDown: COVER_CLOSING,
		myhomeserver.MoveStop: "",
		"SOMETHING":           "",
	}
	for move, expected := range cases {
		shutter.SetTestValue(&myhomeserver.ShutterValue{Move: move})
		require.NoError(cover.Update(ctx))
		require.Equal(expected, cover.CoverState(), "move %s", move)
	}
}

func TestFanState(t *testing.T) {

	require := require.New(t)
	ctx := context.Background()

	hub, entities := testEntities(t)
	fan := entities[3].(*FanEntity)
	fancoil := hub.TestFancoil(0)

	require.Equal(3, fan.SpeedCount())
	require.Equal(FAN_SUPPORT_SET_SPEED, fan.SupportedFeatures())

	require.NoError(fan.Update(ctx))
	require.True(fan.IsOn())
	require.Equal(66, *fan.Percentage())

	fancoil.SetTestValue(&myhomeserver.FancoilValue{Power: false, Fan: 3})
	require.NoError(fan.Update(ctx))
	require.False(fan.IsOn())
	require.Equal(100, *fan.Percentage())

	// automatic speed reported by the vendor
	fancoil.SetTestValue(&myhomeserver.FancoilValue{Power: true, Fan: 0})
	require.NoError(fan.Update(ctx))
	require.Nil(fan.Percentage())
}

func TestPercentageMapping(t *testing.T) {

	require := require.New(t)

	for i, step := range OrderedFanSpeeds {
		pct, err := OrderedListItemToPercentage(OrderedFanSpeeds, step)
		require.NoError(err)
		require.Equal((i+1)*100/3, pct)
		back, err := PercentageToOrderedListItem(OrderedFanSpeeds, pct)
		require.NoError(err)
		require.Equal(step, back)
	}

	cases := map[int]int{0: 1, 1: 1, 33: 1, 34: 2, 66: 2, 67: 3, 100: 3, 150: 3}
	for pct, expected := range cases {
		step, err := PercentageToOrderedListItem(OrderedFanSpeeds, pct)
		require.NoError(err)
		require.Equal(expected, step, "percentage %d", pct)
	}

	_, err := OrderedListItemToPercentage(OrderedFanSpeeds, 4)
	require.ErrorIs(err, ErrItemNotInList)
	_, err = OrderedListItemToPercentage([]int{}, 1)
	require.ErrorIs(err, ErrEmptyOrderedList)
	_, err = PercentageToOrderedListItem([]int{}, 50)
	require.ErrorIs(err, ErrEmptyOrderedList)
}

func TestObjectIdFromUniqueId(t *testing.T) {
	assert.Equal(t, "abc_12_temp", ObjectIdFromUniqueId("ABC-12_temp"))
	assert.Equal(t, "a_b", ObjectIdFromUniqueId("a .-b"))
}

package events

import (
	. "github.com/berfenger/myhome2mqtt/internal/core/domain"
)

// EntityStateToUpdateEvents returns the state event of an entity followed by
// its attributes event. Nothing is returned before the first successful poll.
func EntityStateToUpdateEvents(entity Entity) []any {
	var events []any
	if !entity.HasValue() {
		return events
	}
	id := SensorUpdateEventMixIn{
		Id: entity.ObjectId(),
	}

	switch e := entity.(type) {
	case ClimateController:
		events = append(events, ClimateStateUpdateEvent{
			SensorUpdateEventMixIn: id,
			CurrentTemperature:     e.CurrentTemperature(),
			TargetTemperature:      e.TargetTemperature(),
			Mode:                   e.HVACMode(),
			Action:                 e.HVACAction(),
		})
	case CoverController:
		events = append(events, CoverStateUpdateEvent{
			SensorUpdateEventMixIn: id,
			State:                  e.CoverState(),
		})
	case FanController:
		events = append(events, FanStateUpdateEvent{
			SensorUpdateEventMixIn: id,
			On:                     e.IsOn(),
			Percentage:             e.Percentage(),
		})
	case MeasurementSensor:
		if value := e.NativeValue(); value != nil {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: id,
				Value:                  *value,
				Decimals:               1,
			})
		}
	}

	events = append(events, AttributesUpdateEvent{
		SensorUpdateEventMixIn: id,
		Platform:               entity.Platform(),
		Attributes:             entity.ExtraStateAttributes(),
	})
	return events
}

func EntitiesStateToUpdateEvents(entities []Entity) []any {
	var events []any
	for _, entity := range entities {
		events = append(events, EntityStateToUpdateEvents(entity)...)
	}
	return events
}

func BridgeStateUpdateEvents(online bool) []any {
	return []any{
		BridgeStateUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_BRIDGE_STATE,
			},
			Value: online,
		},
	}
}

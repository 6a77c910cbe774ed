package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEntityNotFound     = errors.New("entity not found")
	ErrUnsupportedCommand = errors.New("command not supported by entity")
)

// EntityCommandRequest

type EntityCommandRequest interface {
	ActorRequest
	EntityKey() string
}

type EntityCommandRequestMixIn struct {
	ActorRequestMixIn
	Platform string
	ObjectId string
}

func (r EntityCommandRequestMixIn) EntityKey() string {
	return EntityKey(r.Platform, r.ObjectId)
}

type EntityCommandResponse struct {
	ActorResponseMixIn
	Key     string
	Command string
}

// EntityKey identifies an entity across platforms: a thermostat and its
// temperature sensor share the same object id.
func EntityKey(platform, objectId string) string {
	return platform + "/" + objectId
}

// Entity commands

type SetHVACModeRequest struct {
	EntityCommandRequestMixIn
	Mode HVACMode
}

type SetTemperatureRequest struct {
	EntityCommandRequestMixIn
	Temperature float64
}

type CoverCommandRequest struct {
	EntityCommandRequestMixIn
	Action CoverAction
}

type FanTurnOnRequest struct {
	EntityCommandRequestMixIn
	Percentage *int
}

type FanTurnOffRequest struct {
	EntityCommandRequestMixIn
}

type FanSetPercentageRequest struct {
	EntityCommandRequestMixIn
	Percentage int
}

// ExecuteCommand forwards a command to the entity. Vendor errors are
// returned as they are, the displayed state only changes on the next poll.
func ExecuteCommand(ctx context.Context, entity Entity, cmd EntityCommandRequest) error {
	switch c := cmd.(type) {
	case SetHVACModeRequest:
		if climate, ok := entity.(ClimateController); ok {
			return climate.SetHVACMode(ctx, c.Mode)
		}
	case SetTemperatureRequest:
		if climate, ok := entity.(ClimateController); ok {
			return climate.SetTemperature(ctx, c.Temperature)
		}
	case CoverCommandRequest:
		if cover, ok := entity.(CoverController); ok {
			switch c.Action {
			case COVER_OPEN:
				return cover.OpenCover(ctx)
			case COVER_CLOSE:
				return cover.CloseCover(ctx)
			case COVER_STOP:
				return cover.StopCover(ctx)
			}
			return fmt.Errorf("%w: cover action %q", ErrUnsupportedCommand, c.Action)
		}
	case FanTurnOnRequest:
		if fan, ok := entity.(FanController); ok {
			return fan.TurnOn(ctx, c.Percentage)
		}
	case FanTurnOffRequest:
		if fan, ok := entity.(FanController); ok {
			return fan.TurnOff(ctx)
		}
	case FanSetPercentageRequest:
		if fan, ok := entity.(FanController); ok {
			return fan.SetPercentage(ctx, c.Percentage)
		}
	}
	return fmt.Errorf("%w: %T on %s", ErrUnsupportedCommand, cmd, entity.UniqueId())
}

// ensure interface compliance
var (
	_ EntityCommandRequest = SetHVACModeRequest{}
	_ EntityCommandRequest = SetTemperatureRequest{}
	_ EntityCommandRequest = CoverCommandRequest{}
	_ EntityCommandRequest = FanTurnOnRequest{}
	_ EntityCommandRequest = FanTurnOffRequest{}
	_ EntityCommandRequest = FanSetPercentageRequest{}
)

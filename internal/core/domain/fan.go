package domain

import (
	"context"
	"fmt"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
)

// off is not included
var OrderedFanSpeeds = []int{1, 2, 3}

type FanEntity struct {
	baseEntity
	fan   myhomeserver.Fancoil
	value *myhomeserver.FancoilValue
}

func NewFanEntity(serial string, fan myhomeserver.Fancoil) *FanEntity {
	return &FanEntity{
		baseEntity: newBaseEntity(serial, fan, fmt.Sprintf("%s_%d", serial, fan.Id())),
		fan:        fan,
	}
}

func (e *FanEntity) Platform() string {
	return PLATFORM_FAN
}

func (e *FanEntity) HasValue() bool {
	return e.value != nil
}

func (e *FanEntity) Update(ctx context.Context) error {
	value, err := e.fan.GetValue(ctx)
	if err != nil {
		return err
	}
	e.value = value
	return nil
}

func (e *FanEntity) SupportedFeatures() int {
	return FAN_SUPPORT_SET_SPEED
}

func (e *FanEntity) IsOn() bool {
	return e.value != nil && e.value.Power
}

// Percentage is nil before the first poll and when the fan coil reports a
// step outside OrderedFanSpeeds.
func (e *FanEntity) Percentage() *int {
	if e.value == nil {
		return nil
	}
	pct, err := OrderedListItemToPercentage(OrderedFanSpeeds, int(e.value.Fan))
	if err != nil {
		return nil
	}
	return &pct
}

func (e *FanEntity) SpeedCount() int {
	return len(OrderedFanSpeeds)
}

func (e *FanEntity) SetPercentage(ctx context.Context, percentage int) error {
	step, err := PercentageToOrderedListItem(OrderedFanSpeeds, percentage)
	if err != nil {
		return err
	}
	return e.fan.SetFanSpeed(ctx, float64(step))
}

// TurnOn keeps the previous speed when percentage is nil or 0.
func (e *FanEntity) TurnOn(ctx context.Context, percentage *int) error {
	if percentage != nil && *percentage != 0 {
		return e.SetPercentage(ctx, *percentage)
	}
	return e.fan.SwitchOn(ctx)
}

func (e *FanEntity) TurnOff(ctx context.Context) error {
	return e.fan.SwitchOff(ctx)
}

// ensure interface compliance
var (
	_ Entity        = (*FanEntity)(nil)
	_ FanController = (*FanEntity)(nil)
)

package domain

import (
	"context"
	"fmt"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
)

type CoverEntity struct {
	baseEntity
	blind myhomeserver.Shutter
	value *myhomeserver.ShutterValue
}

func NewCoverEntity(serial string, blind myhomeserver.Shutter) *CoverEntity {
	return &CoverEntity{
		baseEntity: newBaseEntity(serial, blind, fmt.Sprintf("%s_%d_cover", serial, blind.Id())),
		blind:      blind,
	}
}

func (e *CoverEntity) Platform() string {
	return PLATFORM_COVER
}

func (e *CoverEntity) HasValue() bool {
	return e.value != nil
}

func (e *CoverEntity) Update(ctx context.Context) error {
	value, err := e.blind.GetValue(ctx)
	if err != nil {
		return err
	}
	e.value = value
	return nil
}

func (e *CoverEntity) DeviceClass() string {
	return DEVICE_CLASS_BLIND
}

func (e *CoverEntity) SupportedFeatures() int {
	return COVER_SUPPORT_OPEN | COVER_SUPPORT_CLOSE | COVER_SUPPORT_STOP
}

func (e *CoverEntity) CoverState() CoverState {
	if e.value != nil {
		switch e.value.Move {
		case myhomeserver.MoveDown:
			return COVER_CLOSING
		case myhomeserver.MoveUp:
			return COVER_OPENING
		}
	}
	return ""
}

func (e *CoverEntity) OpenCover(ctx context.Context) error {
	return e.blind.MoveUp(ctx)
}

func (e *CoverEntity) CloseCover(ctx context.Context) error {
	return e.blind.MoveDown(ctx)
}

func (e *CoverEntity) StopCover(ctx context.Context) error {
	return e.blind.MoveStop(ctx)
}

// ensure interface compliance
var (
	_ Entity          = (*CoverEntity)(nil)
	_ CoverController = (*CoverEntity)(nil)
)

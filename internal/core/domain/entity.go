package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
)

const (
	DOMAIN           = "myhomeserver"
	MANUFACTURER     = "BTicino"
	TEMP_CELSIUS     = "°C"
	PLATFORM_CLIMATE = "climate"
	PLATFORM_COVER   = "cover"
	PLATFORM_FAN     = "fan"
	PLATFORM_SENSOR  = "sensor"
	PARALLEL_UPDATES = 10
)

// keys copied from the object metadata into the entity attributes, when present
var OptionalStateAttributes = []string{
	"protocol_name",
	"protocol_config",
	"id_room",
	"id_zone",
}

var objectIdInvalidChars = regexp.MustCompile("[^a-z0-9_]+")

// Entity is the view of one hub object inside Home Assistant. The entity
// keeps the last value snapshot fetched by Update and nothing else.
type Entity interface {
	UniqueId() string
	ObjectId() string
	Name() string
	Platform() string
	DeviceInfo() DeviceInfo
	ExtraStateAttributes() map[string]any
	// HasValue is false until the first successful Update.
	HasValue() bool
	Update(ctx context.Context) error
}

type DeviceInfo struct {
	Identifiers   []string
	Name          string
	Manufacturer  string
	Model         string
	SuggestedArea string
	ViaDevice     string
}

// SuggestedArea joins zone and room names, with the zone name removed from
// the room name: zone "Upstairs", room "Upstairs Bedroom" => "Upstairs / Bedroom".
func SuggestedArea(room *myhomeserver.Room, zone *myhomeserver.Zone) (string, bool) {
	if room == nil || zone == nil {
		return "", false
	}
	roomName := strings.TrimSpace(strings.ReplaceAll(room.Name, zone.Name, ""))
	return zone.Name + " / " + roomName, true
}

func ExtraStateAttributes(info myhomeserver.ObjectInfo) map[string]any {
	attrs := map[string]any{}
	for _, name := range OptionalStateAttributes {
		if value, ok := info[name]; ok {
			attrs[name] = value
		}
	}
	return attrs
}

func ObjectIdFromUniqueId(uniqueId string) string {
	return objectIdInvalidChars.ReplaceAllString(strings.ToLower(uniqueId), "_")
}

func DeviceIdentifier(serial string, objectId int) string {
	return fmt.Sprintf("%s_%s_%d", DOMAIN, serial, objectId)
}

type baseEntity struct {
	serial   string
	uniqueId string
	object   myhomeserver.Object
}

func newBaseEntity(serial string, object myhomeserver.Object, uniqueId string) baseEntity {
	return baseEntity{
		serial:   serial,
		uniqueId: uniqueId,
		object:   object,
	}
}

func (e *baseEntity) UniqueId() string {
	return e.uniqueId
}

func (e *baseEntity) ObjectId() string {
	return ObjectIdFromUniqueId(e.uniqueId)
}

func (e *baseEntity) Name() string {
	return e.object.Name()
}

func (e *baseEntity) DeviceInfo() DeviceInfo {
	info := DeviceInfo{
		Identifiers:  []string{DeviceIdentifier(e.serial, e.object.Id())},
		Name:         e.Name(),
		Manufacturer: MANUFACTURER,
	}
	if area, ok := SuggestedArea(e.object.Room(), e.object.Zone()); ok {
		info.SuggestedArea = area
	}
	return info
}

func (e *baseEntity) ExtraStateAttributes() map[string]any {
	return ExtraStateAttributes(e.object.ObjectInfo())
}

// NewEntities builds every entity exposed for the given hub objects: a
// climate and a temperature sensor per thermostat, a cover per shutter and a
// fan per fan coil.
func NewEntities(serial string, thermostats []myhomeserver.Thermostat, blinds []myhomeserver.Shutter,
	fans []myhomeserver.Fancoil) []Entity {
	var entities []Entity
	for _, t := range thermostats {
		entities = append(entities, NewThermostatEntity(serial, t))
	}
	for _, t := range thermostats {
		entities = append(entities, NewTemperatureSensorEntity(serial, t))
	}
	for _, b := range blinds {
		entities = append(entities, NewCoverEntity(serial, b))
	}
	for _, f := range fans {
		entities = append(entities, NewFanEntity(serial, f))
	}
	return entities
}

func floatPtr(v float64) *float64 {
	return &v
}

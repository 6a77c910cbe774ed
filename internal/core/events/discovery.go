package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "github.com/berfenger/myhome2mqtt/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("myhome2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "myhome2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("MyHOME bridge %s", md5HashShort(baseTopic)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func EntityDevice(entity Entity, viaDevice string) Device {
	info := entity.DeviceInfo()
	device := Device{
		Name:          info.Name,
		Manufacturer:  info.Manufacturer,
		Model:         info.Model,
		SuggestedArea: info.SuggestedArea,
		ViaDevice:     viaDevice,
	}
	if len(info.Identifiers) > 0 {
		device.Id = info.Identifiers[0]
	}
	return device
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

// EntitiesToDiscoveryComponents maps entities to the components announced to
// Home Assistant. Only the first component of a device carries the full
// device description.
func EntitiesToDiscoveryComponents(bridgeDevice Device, entities []Entity) DiscoveryComponents {
	var components DiscoveryComponents

	components.Sensors = append(components.Sensors, BridgeSensors(bridgeDevice)...)

	described := map[string]bool{}
	for _, entity := range entities {
		device := EntityDevice(entity, bridgeDevice.Id)
		if described[device.Id] {
			device = IdDevice(device)
		}
		described[device.Id] = true

		switch e := entity.(type) {
		case ClimateController:
			var modes []string
			for _, mode := range e.HVACModes() {
				modes = append(modes, string(mode))
			}
			components.Climates = append(components.Climates, GenericClimate{
				Device:          device,
				Id:              entity.ObjectId(),
				Name:            entity.Name(),
				UniqueId:        entity.UniqueId(),
				Modes:           modes,
				MinTemp:         e.MinTemp(),
				MaxTemp:         e.MaxTemp(),
				TemperatureUnit: e.TemperatureUnit(),
			})
		case CoverController:
			components.Covers = append(components.Covers, GenericCover{
				Device:      device,
				Id:          entity.ObjectId(),
				Name:        entity.Name(),
				UniqueId:    entity.UniqueId(),
				DeviceClass: e.DeviceClass(),
				CanStop:     e.SupportedFeatures()&COVER_SUPPORT_STOP != 0,
			})
		case FanController:
			components.Fans = append(components.Fans, GenericFan{
				Device:     device,
				Id:         entity.ObjectId(),
				Name:       entity.Name(),
				UniqueId:   entity.UniqueId(),
				SpeedCount: e.SpeedCount(),
			})
		case MeasurementSensor:
			components.Sensors = append(components.Sensors, GenericSensor{
				Device:            device,
				Id:                entity.ObjectId(),
				SensorType:        SENSOR_TYPE_SENSOR,
				Name:              entity.Name(),
				UniqueId:          entity.UniqueId(),
				UnitOfMeasurement: e.NativeUnitOfMeasurement(),
				StateClass:        e.StateClass(),
				DeviceClass:       e.DeviceClass(),
				HasAttributes:     true,
			})
		}
	}
	return components
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

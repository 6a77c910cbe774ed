package mqtt

import (
	"fmt"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device              HADiscoveryDevice `json:"device"`
	StateTopic          string            `json:"state_topic,omitempty"`
	CommandTopic        string            `json:"command_topic,omitempty"`
	JsonAttributesTopic string            `json:"json_attributes_topic,omitempty"`
	StateClass          string            `json:"state_class,omitempty"`
	DeviceClass         string            `json:"device_class,omitempty"`
	UnitOfMeasurement   string            `json:"unit_of_measurement,omitempty"`
	AvTopic             string            `json:"availability_topic,omitempty"`
	EntityCategory      string            `json:"entity_category,omitempty"`
	Name                string            `json:"name"`
	UniqueId            string            `json:"unique_id"`
	ObjectId            string            `json:"object_id,omitempty"`
	Platform            string            `json:"platform"`
	EnabledByDefault    *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn           string            `json:"payload_on,omitempty"`
	PayloadOff          string            `json:"payload_off,omitempty"`
	Icon                string            `json:"icon,omitempty"`

	// climate
	CurrentTemperatureTopic    string   `json:"current_temperature_topic,omitempty"`
	CurrentTemperatureTemplate string   `json:"current_temperature_template,omitempty"`
	TemperatureStateTopic      string   `json:"temperature_state_topic,omitempty"`
	TemperatureStateTemplate   string   `json:"temperature_state_template,omitempty"`
	TemperatureCommandTopic    string   `json:"temperature_command_topic,omitempty"`
	ModeStateTopic             string   `json:"mode_state_topic,omitempty"`
	ModeStateTemplate          string   `json:"mode_state_template,omitempty"`
	ModeCommandTopic           string   `json:"mode_command_topic,omitempty"`
	ActionTopic                string   `json:"action_topic,omitempty"`
	ActionTemplate             string   `json:"action_template,omitempty"`
	Modes                      []string `json:"modes,omitempty"`
	MinTemp                    float64  `json:"min_temp,omitempty"`
	MaxTemp                    float64  `json:"max_temp,omitempty"`
	TemperatureUnit            string   `json:"temperature_unit,omitempty"`
	TempStep                   float64  `json:"temp_step,omitempty"`

	// cover
	PayloadOpen  string  `json:"payload_open,omitempty"`
	PayloadClose string  `json:"payload_close,omitempty"`
	PayloadStop  *string `json:"payload_stop,omitempty"`
	StateOpening string  `json:"state_opening,omitempty"`
	StateClosing string  `json:"state_closing,omitempty"`

	// fan
	StateValueTemplate      string `json:"state_value_template,omitempty"`
	PercentageStateTopic    string `json:"percentage_state_topic,omitempty"`
	PercentageValueTemplate string `json:"percentage_value_template,omitempty"`
	PercentageCommandTopic  string `json:"percentage_command_topic,omitempty"`
	SpeedRangeMin           int    `json:"speed_range_min,omitempty"`
	SpeedRangeMax           int    `json:"speed_range_max,omitempty"`
}

type HADiscoveryDevice struct {
	Id            []string `json:"identifiers"`
	Manufacturer  string   `json:"manufacturer,omitempty"`
	Version       string   `json:"sw_version,omitempty"`
	Model         string   `json:"model,omitempty"`
	Name          string   `json:"name,omitempty"`
	ViaDevice     string   `json:"via_device,omitempty"`
	SuggestedArea string   `json:"suggested_area,omitempty"`
}

// ClimateStatePayload is published on the climate state topic. Nil values are
// rendered as None by Home Assistant templates.
type ClimateStatePayload struct {
	CurrentTemperature *float64 `json:"current_temperature"`
	TargetTemperature  *float64 `json:"target_temperature"`
	Mode               *string  `json:"mode"`
	Action             *string  `json:"action"`
}

type FanStatePayload struct {
	State      string `json:"state"`
	Percentage *int   `json:"percentage"`
}

func (c *MQTTClient) DiscoveryPrefix() string {
	return c.cfg.HADiscoveryTopic
}

func HADiscoverySensorTopic(prefix string, sensor domain.GenericSensor) string {
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		return fmt.Sprintf("%s/%s/%s/%s/config", prefix, sensor.SensorType, sensor.Device.Id, sensor.Id)
	}
	return fmt.Sprintf("%s/%s/%s/config", prefix, sensor.SensorType, sensor.Id)
}

func HADiscoveryClimateTopic(prefix string, climate domain.GenericClimate) string {
	return fmt.Sprintf("%s/%s/%s/config", prefix, domain.PLATFORM_CLIMATE, climate.Id)
}

func HADiscoveryCoverTopic(prefix string, cover domain.GenericCover) string {
	return fmt.Sprintf("%s/%s/%s/config", prefix, domain.PLATFORM_COVER, cover.Id)
}

func HADiscoveryFanTopic(prefix string, fan domain.GenericFan) string {
	return fmt.Sprintf("%s/%s/%s/config", prefix, domain.PLATFORM_FAN, fan.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		topic = client.BridgeStateTopic()
	default:
		topic = client.SensorStateTopic(sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        topic,
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		AvTopic:           client.BridgeStateTopic(),
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		EnabledByDefault:  sensor.EnabledByDefault,
		Platform:          "mqtt",
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	} else {
		disConfig.ObjectId = sensor.Id
	}
	if sensor.HasAttributes {
		disConfig.JsonAttributesTopic = client.AttributesTopic(domain.PLATFORM_SENSOR, sensor.Id)
	}
	return disConfig
}

func GenericClimateToHADiscoveryMessage(client *MQTTClient, climate domain.GenericClimate) HADiscoveryConfig {
	stateTopic := client.ClimateStateTopic(climate.Id)
	return HADiscoveryConfig{
		Device:                     device(climate.Device),
		AvTopic:                    client.BridgeStateTopic(),
		JsonAttributesTopic:        client.AttributesTopic(domain.PLATFORM_CLIMATE, climate.Id),
		Name:                       climate.Name,
		UniqueId:                   climate.UniqueId,
		ObjectId:                   climate.Id,
		Platform:                   "mqtt",
		CurrentTemperatureTopic:    stateTopic,
		CurrentTemperatureTemplate: "{{ value_json.current_temperature }}",
		TemperatureStateTopic:      stateTopic,
		TemperatureStateTemplate:   "{{ value_json.target_temperature }}",
		TemperatureCommandTopic:    client.ClimateTemperatureCommandTopic(climate.Id),
		ModeStateTopic:             stateTopic,
		ModeStateTemplate:          "{{ value_json.mode }}",
		ModeCommandTopic:           client.ClimateModeCommandTopic(climate.Id),
		ActionTopic:                stateTopic,
		ActionTemplate:             "{{ value_json.action }}",
		Modes:                      climate.Modes,
		MinTemp:                    climate.MinTemp,
		MaxTemp:                    climate.MaxTemp,
		TemperatureUnit:            temperatureUnit(climate.TemperatureUnit),
		TempStep:                   0.5,
	}
}

func GenericCoverToHADiscoveryMessage(client *MQTTClient, cover domain.GenericCover) HADiscoveryConfig {
	disConfig := HADiscoveryConfig{
		Device:              device(cover.Device),
		StateTopic:          client.CoverStateTopic(cover.Id),
		CommandTopic:        client.CoverCommandTopic(cover.Id),
		JsonAttributesTopic: client.AttributesTopic(domain.PLATFORM_COVER, cover.Id),
		AvTopic:             client.BridgeStateTopic(),
		DeviceClass:         cover.DeviceClass,
		Name:                cover.Name,
		UniqueId:            cover.UniqueId,
		ObjectId:            cover.Id,
		Platform:            "mqtt",
		PayloadOpen:         string(domain.COVER_OPEN),
		PayloadClose:        string(domain.COVER_CLOSE),
		StateOpening:        string(domain.COVER_OPENING),
		StateClosing:        string(domain.COVER_CLOSING),
	}
	if cover.CanStop {
		stop := string(domain.COVER_STOP)
		disConfig.PayloadStop = &stop
	}
	return disConfig
}

func GenericFanToHADiscoveryMessage(client *MQTTClient, fan domain.GenericFan) HADiscoveryConfig {
	stateTopic := client.FanStateTopic(fan.Id)
	return HADiscoveryConfig{
		Device:                  device(fan.Device),
		StateTopic:              stateTopic,
		StateValueTemplate:      "{{ value_json.state }}",
		CommandTopic:            client.FanCommandTopic(fan.Id),
		JsonAttributesTopic:     client.AttributesTopic(domain.PLATFORM_FAN, fan.Id),
		AvTopic:                 client.BridgeStateTopic(),
		Name:                    fan.Name,
		UniqueId:                fan.UniqueId,
		ObjectId:                fan.Id,
		Platform:                "mqtt",
		PayloadOn:               MQTT_PAYLOAD_ON,
		PayloadOff:              MQTT_PAYLOAD_OFF,
		PercentageStateTopic:    stateTopic,
		PercentageValueTemplate: "{{ value_json.percentage }}",
		PercentageCommandTopic:  client.FanPercentageCommandTopic(fan.Id),
		SpeedRangeMin:           1,
		SpeedRangeMax:           100,
	}
}

// Home Assistant expects C or F
func temperatureUnit(unit string) string {
	if unit == domain.TEMP_CELSIUS {
		return "C"
	}
	return unit
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:            []string{d.Id},
		Manufacturer:  d.Manufacturer,
		Version:       d.Version,
		Model:         d.Model,
		Name:          d.Name,
		ViaDevice:     d.ViaDevice,
		SuggestedArea: d.SuggestedArea,
	}
}

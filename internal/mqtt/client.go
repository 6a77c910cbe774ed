package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "ON"
	MQTT_PAYLOAD_OFF     = "OFF"
	MQTT_PAYLOAD_NONE    = "None"
)

// command attributes, empty for the main command topic of a platform
const (
	COMMAND_PARAM_MODE        = "mode"
	COMMAND_PARAM_TEMPERATURE = "temperature"
	COMMAND_PARAM_PERCENTAGE  = "percentage"
)

var ErrInvalidCommand = errors.New("invalid command")

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("myhome2mqtt_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:              mqtt.NewClient(opts),
		cfg:                 cfg.MQTT,
		entityCommandRegexp: entityCommandExtractor(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	client              mqtt.Client
	cfg                 config.MQTTConfig
	entityCommandRegexp *regexp.Regexp
}

// ParsedMQTTCommand is a command received on {base}/{platform}/{object_id}[/{param}]/set.
type ParsedMQTTCommand struct {
	DeviceId string
	Command  string
	Param    string
	Payload  string
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) SensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/sensor/%s/state", c.baseTopic(), sensorId)
}

func (c *MQTTClient) ClimateStateTopic(id string) string {
	return fmt.Sprintf("%s/climate/%s/state", c.baseTopic(), id)
}

func (c *MQTTClient) ClimateModeCommandTopic(id string) string {
	return fmt.Sprintf("%s/climate/%s/%s/set", c.baseTopic(), id, COMMAND_PARAM_MODE)
}

func (c *MQTTClient) ClimateTemperatureCommandTopic(id string) string {
	return fmt.Sprintf("%s/climate/%s/%s/set", c.baseTopic(), id, COMMAND_PARAM_TEMPERATURE)
}

func (c *MQTTClient) CoverStateTopic(id string) string {
	return fmt.Sprintf("%s/cover/%s/state", c.baseTopic(), id)
}

func (c *MQTTClient) CoverCommandTopic(id string) string {
	return fmt.Sprintf("%s/cover/%s/set", c.baseTopic(), id)
}

func (c *MQTTClient) FanStateTopic(id string) string {
	return fmt.Sprintf("%s/fan/%s/state", c.baseTopic(), id)
}

func (c *MQTTClient) FanCommandTopic(id string) string {
	return fmt.Sprintf("%s/fan/%s/set", c.baseTopic(), id)
}

func (c *MQTTClient) FanPercentageCommandTopic(id string) string {
	return fmt.Sprintf("%s/fan/%s/%s/set", c.baseTopic(), id, COMMAND_PARAM_PERCENTAGE)
}

func (c *MQTTClient) AttributesTopic(platform, id string) string {
	return fmt.Sprintf("%s/%s/%s/attributes", c.baseTopic(), platform, id)
}

// HAStatusTopic is where Home Assistant announces its own availability.
func (c *MQTTClient) HAStatusTopic() string {
	return fmt.Sprintf("%s/status", c.cfg.HADiscoveryTopic)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.parseEntityCommand(msg.Topic(), string(msg.Payload()))
}

func (c *MQTTClient) parseEntityCommand(topic, payload string) (*ParsedMQTTCommand, error) {
	matches := c.entityCommandRegexp.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 {
		return nil, ErrInvalidCommand
	}
	if len(matches[0]) != 4 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, topic)
	}
	return &ParsedMQTTCommand{
		DeviceId: matches[0][2],
		Command:  matches[0][1],
		Param:    matches[0][3],
		Payload:  payload,
	}, nil
}

// IsHAOnlineMessage reports whether msg is Home Assistant announcing it is back online.
func (c *MQTTClient) IsHAOnlineMessage(msg mqtt.Message) bool {
	return msg.Topic() == c.HAStatusTopic() && string(msg.Payload()) == MQTT_PAYLOAD_ONLINE
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeMultiple(filters map[string]byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.SubscribeMultiple(filters, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// SubscribeToCommandTopic subscribes to every entity command topic and, when
// discovery is enabled, to the Home Assistant status topic.
func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.SubscribeMultiple(c.commandTopics(), handler, continuation, timeout)
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopics() map[string]byte {
	filters := map[string]byte{
		fmt.Sprintf("%s/+/+/set", c.baseTopic()):   1,
		fmt.Sprintf("%s/+/+/+/set", c.baseTopic()): 1,
	}
	if c.cfg.HADiscoveryEnable {
		filters[c.HAStatusTopic()] = 1
	}
	return filters
}

func entityCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/(climate|cover|fan)/([a-zA-Z0-9_]+)/(?:(mode|temperature|percentage)/)?set$",
		regexp.QuoteMeta(baseTopic)))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

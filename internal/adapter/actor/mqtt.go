package actor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/config"
	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/metrics"
	"github.com/berfenger/myhome2mqtt/internal/mqtt"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

// HAOnline is sent to the parent when Home Assistant comes back online.
type HAOnline struct {
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")
		send := actorutil.SelfSender(ctx)

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			send(MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				send(MQTTConnectionLost{Error: err})
			} else {
				send(MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")
		send := actorutil.SelfSender(ctx)
		metrics.MQTTConnectionStatus.Set(1)

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to MQTT command topics
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			if state.client.IsHAOnlineMessage(m) {
				send(HAOnline{})
				return
			}
			cmd, err := state.client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				send(ParsedCommand{Command: cmd})
			}
		}, func(err error) {
			if err != nil {
				send(MQTTConnectionLost{Error: err})
			} else {
				send(MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.subscribeEventStream(ctx)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case HAOnline:
		state.logger.Info("mqtt@default home assistant is online")
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishSensorUpdateRequest:
		// receive message from event bus and publish to MQTT if needed
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishSensorValue(ctx, msg.Event, msg.Retain, (*actor.PID)(msg.ReplyTo()))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery", zap.Int("components", msg.Components.Count()))
		err := state.PublishHomeAssistantDiscovery(msg.Components)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		})
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) subscribeEventStream(ctx actor.Context) {
	if state.eventStream == nil || state.eventStreamSub != nil {
		return
	}
	send := actorutil.SelfSender(ctx)
	state.eventStreamSub = state.eventStream.Subscribe(func(evt any) {
		if event, ok := evt.(domain.SensorUpdateEvent); ok {
			send(domain.PublishSensorUpdateRequest{
				Event: event,
			})
		}
	})
}

func (state *MQTTActor) event2MQTTMessage(event any) (*rawMessage, error) {
	switch msg := event.(type) {
	case domain.FloatSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.Id),
			message: strconv.FormatFloat(msg.Value, 'f', int(msg.Decimals), 64),
		}, nil
	case domain.ClimateStateUpdateEvent:
		payload, err := json.Marshal(mqtt.ClimateStatePayload{
			CurrentTemperature: msg.CurrentTemperature,
			TargetTemperature:  msg.TargetTemperature,
			Mode:               optionalString(string(msg.Mode)),
			Action:             optionalString(string(msg.Action)),
		})
		if err != nil {
			return nil, err
		}
		return &rawMessage{
			topic:   state.client.ClimateStateTopic(msg.Id),
			message: string(payload),
		}, nil
	case domain.CoverStateUpdateEvent:
		message := string(msg.State)
		if message == "" {
			message = mqtt.MQTT_PAYLOAD_NONE
		}
		return &rawMessage{
			topic:   state.client.CoverStateTopic(msg.Id),
			message: message,
		}, nil
	case domain.FanStateUpdateEvent:
		payload, err := json.Marshal(mqtt.FanStatePayload{
			State:      bool2MQTTPayload(msg.On),
			Percentage: msg.Percentage,
		})
		if err != nil {
			return nil, err
		}
		return &rawMessage{
			topic:   state.client.FanStateTopic(msg.Id),
			message: string(payload),
		}, nil
	case domain.AttributesUpdateEvent:
		attributes := msg.Attributes
		if attributes == nil {
			attributes = map[string]any{}
		}
		payload, err := json.Marshal(attributes)
		if err != nil {
			return nil, err
		}
		return &rawMessage{
			topic:   state.client.AttributesTopic(msg.Platform, msg.Id),
			message: string(payload),
			retain:  true,
		}, nil
	case domain.BridgeStateUpdateEvent:
		var stringMessage string
		if msg.Value {
			stringMessage = mqtt.MQTT_PAYLOAD_ONLINE
		} else {
			stringMessage = mqtt.MQTT_PAYLOAD_OFFLINE
		}
		return &rawMessage{
			topic:   state.client.BridgeStateTopic(),
			message: stringMessage,
			retain:  true,
		}, nil
	default:
		return nil, nil
	}
}

func (state *MQTTActor) publishSensorValue(ctx actor.Context, event domain.SensorUpdateEvent, retain bool, replyTo *actor.PID) {
	msg, err := state.event2MQTTMessage(event)
	if err != nil {
		state.logger.Error("mqtt@publish could not encode event", zap.String("type", fmt.Sprintf("%T", event)), zap.Error(err))
	}
	if msg == nil {
		if replyTo != nil {
			ctx.Send(replyTo, domain.PublishSensorUpdateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
		}
		return
	}
	state.logger.Sugar().Debugf("mqtt@publish: sensor publish %s => %s", msg.topic, msg.message)
	send := actorutil.SelfSender(ctx)
	state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
		send(publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.EventPublishResultReceive)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	send := actorutil.SelfSender(ctx)
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		send(publishResult{ReplyTo: replyTo, Error: err})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.MessagePublishResultReceive)
}

func (state *MQTTActor) MessagePublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) EventPublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		// log error and return to default state
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishSensorUpdateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case MQTTConnectionLost:
		state.logger.Error("mqtt@publishing connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(components domain.DiscoveryComponents) error {
	prefix := state.client.DiscoveryPrefix()
	publish := func(topic string, msg mqtt.HADiscoveryConfig) error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
		metrics.DiscoveryPublishedTotal.Inc()
		return nil
	}

	for i := range components.Sensors {
		msg := mqtt.GenericSensorToHADiscoveryMessage(state.client, components.Sensors[i])
		if err := publish(mqtt.HADiscoverySensorTopic(prefix, components.Sensors[i]), msg); err != nil {
			return err
		}
	}
	for i := range components.Climates {
		msg := mqtt.GenericClimateToHADiscoveryMessage(state.client, components.Climates[i])
		if err := publish(mqtt.HADiscoveryClimateTopic(prefix, components.Climates[i]), msg); err != nil {
			return err
		}
	}
	for i := range components.Covers {
		msg := mqtt.GenericCoverToHADiscoveryMessage(state.client, components.Covers[i])
		if err := publish(mqtt.HADiscoveryCoverTopic(prefix, components.Covers[i]), msg); err != nil {
			return err
		}
	}
	for i := range components.Fans {
		msg := mqtt.GenericFanToHADiscoveryMessage(state.client, components.Fans[i])
		if err := publish(mqtt.HADiscoveryFanTopic(prefix, components.Fans[i]), msg); err != nil {
			return err
		}
	}
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	metrics.MQTTConnectionStatus.Set(0)
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

// DummyReceive answers like a connected actor without a broker. Events it
// would publish are encoded and forwarded to the parent as PublishMessageRequest.
func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.subscribeEventStream(ctx)
	case *actor.Stopping:
		if state.eventStreamSub != nil {
			state.eventStream.Unsubscribe(state.eventStreamSub)
			state.eventStreamSub = nil
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand, HAOnline:
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishSensorUpdateRequest:
		raw, err := state.event2MQTTMessage(msg.Event)
		if err == nil && raw != nil && ctx.Parent() != nil {
			ctx.Send(ctx.Parent(), domain.PublishMessageRequest{
				Topic:   raw.topic,
				Payload: raw.message,
				Retain:  raw.retain || msg.Retain,
			})
		}
		if msg.ReplyToRef != nil {
			ctx.Send((*actor.PID)(msg.ReplyToRef), domain.PublishSensorUpdateResponse{})
		}
	case domain.PublishMessageRequest:
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
	case domain.PublishDiscoveryRequest:
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{})
	}
}

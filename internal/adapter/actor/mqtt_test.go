package actor

import (
	"testing"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/util"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// spawnTestMQTTActor spawns the dummy MQTT actor under a parent that collects
// every encoded message.
func spawnTestMQTTActor(t *testing.T, es *eventstream.EventStream) (*actor.ActorSystem, *actor.PID, chan domain.PublishMessageRequest) {
	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	published := make(chan domain.PublishMessageRequest, 16)
	childReady := make(chan *actor.PID, 1)

	parent := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Started:
			props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, es, logger) })
			childReady <- ctx.Spawn(props)
		case domain.PublishMessageRequest:
			published <- msg
		}
	})
	as.Root.Spawn(parent)

	select {
	case pid := <-childReady:
		return as, pid, published
	case <-time.After(2 * time.Second):
		t.Fatal("mqtt actor not spawned")
	}
	return nil, nil, nil
}

func TestMQTTActor(t *testing.T) {

	es := eventstream.EventStream{}
	as, pid, _ := spawnTestMQTTActor(t, &es)
	context := as.Root

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.Equal(t, domain.ACTOR_ID_MQTT, resp.Id)

	result, err = context.RequestFuture(pid, domain.PublishDiscoveryRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	assert.IsType(t, domain.PublishDiscoveryResponse{}, result)

	context.Stop(pid)

	time.Sleep(100 * time.Millisecond)

	as.Shutdown()
}

func TestMQTTActorEncodesEvents(t *testing.T) {

	require := require.New(t)

	es := eventstream.EventStream{}
	as, pid, published := spawnTestMQTTActor(t, &es)

	// wait for the eventstream subscription
	_, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(err)

	current, target := 20.5, 21.0
	pct := 66
	events := []any{
		domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "mhs1_0042_11_temp"},
			Value:                  20.54,
			Decimals:               1,
		},
		domain.ClimateStateUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "mhs1_0042_11_temp"},
			CurrentTemperature:     &current,
			TargetTemperature:      &target,
			Mode:                   domain.HVAC_MODE_HEAT,
		},
		domain.CoverStateUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "mhs1_0042_21_cover"},
		},
		domain.FanStateUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "mhs1_0042_31"},
			On:                     true,
			Percentage:             &pct,
		},
		domain.AttributesUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "mhs1_0042_31"},
			Platform:               domain.PLATFORM_FAN,
			Attributes:             map[string]any{"protocol_name": "SCS"},
		},
		domain.BridgeStateUpdateEvent{Value: true},
	}
	for _, event := range events {
		es.Publish(event)
	}

	expected := []domain.PublishMessageRequest{
		{Topic: "myhome/sensor/mhs1_0042_11_temp/state", Payload: "20.5"},
		{Topic: "myhome/climate/mhs1_0042_11_temp/state",
			Payload: `{"current_temperature":20.5,"target_temperature":21,"mode":"heat","action":null}`},
		{Topic: "myhome/cover/mhs1_0042_21_cover/state", Payload: "None"},
		{Topic: "myhome/fan/mhs1_0042_31/state", Payload: `{"state":"ON","percentage":66}`},
		{Topic: "myhome/fan/mhs1_0042_31/attributes", Payload: `{"protocol_name":"SCS"}`, Retain: true},
		{Topic: "myhome/bridge/state", Payload: "online", Retain: true},
	}
	for _, want := range expected {
		select {
		case got := <-published:
			require.Equal(want.Topic, got.Topic)
			require.Equal(want.Retain, got.Retain, want.Topic)
			if want.Payload[0] == '{' {
				require.JSONEq(want.Payload, got.Payload)
			} else {
				require.Equal(want.Payload, got.Payload)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no message published for %s", want.Topic)
		}
	}

	as.Shutdown()
}

package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/myhome2mqtt/internal/adapter/actor"
	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/mqtt"
	"github.com/berfenger/myhome2mqtt/internal/util"
	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnTestMaster(t *testing.T, hub *myhomeserver.TestHub) (*actor.ActorSystem, *actor.PID) {
	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.HubActor {
			return adactor.NewHubActor(hub, cfg.MyHOMEServer.Timeout(), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	return as, pid
}

func TestMasterActor(t *testing.T) {

	hub := myhomeserver.NewTestHub()
	as, pid := spawnTestMaster(t, hub)
	context := as.Root

	assert.Eventually(t, func() bool {
		res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
		if err != nil {
			return false
		}
		healthResp, ok := res.(domain.ActorHealthResponse)
		return ok && healthResp.Healthy
	}, 10*time.Second, 200*time.Millisecond, "healthy is true")

	res, err := context.RequestFuture(pid, domain.GetEntitiesRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	entities := res.(domain.GetEntitiesResponse)
	require.Equal(t, "MHS1-0042", entities.Serial)

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorRoutesCommands(t *testing.T) {

	require := require.New(t)

	hub := myhomeserver.NewTestHub()
	as, pid := spawnTestMaster(t, hub)
	context := as.Root

	require.Eventually(func() bool {
		res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
		return err == nil && res.(domain.ActorHealthResponse).Healthy
	}, 10*time.Second, 200*time.Millisecond)

	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "mhs1_0042_11_temp",
		Command:  domain.PLATFORM_CLIMATE,
		Param:    mqtt.COMMAND_PARAM_TEMPERATURE,
		Payload:  "22.5",
	}})
	// invalid payloads are dropped
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "mhs1_0042_21_cover",
		Command:  domain.PLATFORM_COVER,
		Payload:  "UP",
	}})
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "mhs1_0042_21_cover",
		Command:  domain.PLATFORM_COVER,
		Payload:  "STOP",
	}})

	require.Eventually(func() bool {
		calls := hub.Calls()
		return len(calls) == 2 && calls[0] == "11:SetTemperature(22.5)" && calls[1] == "21:MoveStop()"
	}, 5*time.Second, 50*time.Millisecond)

	context.Stop(pid)

	as.Shutdown()
}

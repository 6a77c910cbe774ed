package actor

import (
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/myhome2mqtt/internal/adapter/actor"
	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/util"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"
	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []any
}

func (r *eventRecorder) record(evt any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *eventRecorder) fanStates() []domain.FanStateUpdateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var states []domain.FanStateUpdateEvent
	for _, evt := range r.events {
		if fan, ok := evt.(domain.FanStateUpdateEvent); ok {
			states = append(states, fan)
		}
	}
	return states
}

func spawnEntitiesActor(t *testing.T, hub *myhomeserver.TestHub) (*actor.ActorSystem, *actor.PID, *eventRecorder) {
	cfg := util.LoadTestConfig()
	// ticks stay out of the way
	cfg.MonitorConfig.PollIntervalMillis = 60000

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	es := &eventstream.EventStream{}
	recorder := &eventRecorder{}
	es.Subscribe(recorder.record)

	hubPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewHubActor(hub, cfg.MyHOMEServer.Timeout(), logger)
	}))
	pid := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewEntitiesActor(&cfg, hubPID, es, logger)
	}))

	require.Eventually(t, func() bool {
		res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond).Result()
		if err != nil {
			return false
		}
		return res.(domain.ActorHealthResponse).Healthy
	}, 5*time.Second, 100*time.Millisecond)

	return as, pid, recorder
}

func TestEntitiesActorPoll(t *testing.T) {

	require := require.New(t)

	hub := myhomeserver.NewTestHub()
	as, pid, recorder := spawnEntitiesActor(t, hub)
	context := as.Root

	res, err := context.RequestFuture(pid, domain.PollEntitiesRequest{}, 5*time.Second).Result()
	require.NoError(err)
	poll := res.(domain.PollEntitiesResponse)
	require.Equal(4, poll.Polled)
	require.Equal(0, poll.Failed)

	states := recorder.fanStates()
	require.NotEmpty(states)
	last := states[len(states)-1]
	require.Equal("mhs1_0042_31", last.Id)
	require.True(last.On)
	require.Equal(66, *last.Percentage)

	res, err = context.RequestFuture(pid, domain.GetEntitiesRequest{}, 2*time.Second).Result()
	require.NoError(err)
	entities := res.(domain.GetEntitiesResponse)
	require.NoError(entities.ResponseError)
	require.Equal("MHS1-0042", entities.Serial)
	require.Equal(5, entities.Components.Count())
	require.NotEmpty(entities.States)

	as.Shutdown()
}

func TestEntitiesActorPollKeepsSnapshot(t *testing.T) {

	require := require.New(t)

	hub := myhomeserver.NewTestHub()
	as, pid, _ := spawnEntitiesActor(t, hub)
	context := as.Root

	_, err := context.RequestFuture(pid, domain.PollEntitiesRequest{}, 5*time.Second).Result()
	require.NoError(err)

	hub.TestThermostat(0).SetOffline(true)

	res, err := context.RequestFuture(pid, domain.PollEntitiesRequest{}, 5*time.Second).Result()
	require.NoError(err)
	poll := res.(domain.PollEntitiesResponse)
	// climate and temperature sensor
	require.Equal(2, poll.Failed)

	res, err = context.RequestFuture(pid, domain.GetEntitiesRequest{}, 2*time.Second).Result()
	require.NoError(err)
	var climate *domain.ClimateStateUpdateEvent
	for _, state := range res.(domain.GetEntitiesResponse).States {
		if c, ok := state.(domain.ClimateStateUpdateEvent); ok {
			climate = &c
		}
	}
	require.NotNil(climate)
	require.Equal(20.5, *climate.CurrentTemperature)

	as.Shutdown()
}

func TestEntitiesActorCommands(t *testing.T) {

	require := require.New(t)

	hub := myhomeserver.NewTestHub()
	as, pid, _ := spawnEntitiesActor(t, hub)
	context := as.Root

	res, err := context.RequestFuture(pid, domain.FanSetPercentageRequest{
		EntityCommandRequestMixIn: domain.EntityCommandRequestMixIn{
			Platform: domain.PLATFORM_FAN,
			ObjectId: "mhs1_0042_31",
		},
		Percentage: 100,
	}, 2*time.Second).Result()
	require.NoError(err)
	resp := res.(domain.EntityCommandResponse)
	require.NoError(resp.ResponseError)
	require.Equal("fan/mhs1_0042_31", resp.Key)

	res, err = context.RequestFuture(pid, domain.CoverCommandRequest{
		EntityCommandRequestMixIn: domain.EntityCommandRequestMixIn{
			Platform: domain.PLATFORM_COVER,
			ObjectId: "mhs1_0042_21_cover",
		},
		Action: domain.COVER_OPEN,
	}, 2*time.Second).Result()
	require.NoError(err)
	require.NoError(res.(domain.EntityCommandResponse).ResponseError)

	// the temperature sensor shares the object id but takes no commands
	res, err = context.RequestFuture(pid, domain.SetTemperatureRequest{
		EntityCommandRequestMixIn: domain.EntityCommandRequestMixIn{
			Platform: domain.PLATFORM_SENSOR,
			ObjectId: "mhs1_0042_11_temp",
		},
		Temperature: 22,
	}, 2*time.Second).Result()
	require.NoError(err)
	require.ErrorIs(res.(domain.EntityCommandResponse).ResponseError, domain.ErrUnsupportedCommand)

	res, err = context.RequestFuture(pid, domain.FanTurnOffRequest{
		EntityCommandRequestMixIn: domain.EntityCommandRequestMixIn{
			Platform: domain.PLATFORM_FAN,
			ObjectId: "nope",
		},
	}, 2*time.Second).Result()
	require.NoError(err)
	require.ErrorIs(res.(domain.EntityCommandResponse).ResponseError, domain.ErrEntityNotFound)

	// vendor errors are reported, not retried
	hub.TestFancoil(0).SetOffline(true)
	res, err = context.RequestFuture(pid, domain.FanTurnOffRequest{
		EntityCommandRequestMixIn: domain.EntityCommandRequestMixIn{
			Platform: domain.PLATFORM_FAN,
			ObjectId: "mhs1_0042_31",
		},
	}, 2*time.Second).Result()
	require.NoError(err)
	require.ErrorIs(res.(domain.EntityCommandResponse).ResponseError, myhomeserver.ErrTestObjectOffline)

	require.Equal([]string{"31:SetFanSpeed(3.0)", "21:MoveUp()"}, hub.Calls())

	as.Shutdown()
}

func TestEntitiesActorPollRoundTimeout(t *testing.T) {

	require := require.New(t)

	hub := myhomeserver.NewTestHub()
	as, pid, _ := spawnEntitiesActor(t, hub)
	context := as.Root

	_, err := context.RequestFuture(pid, domain.PollEntitiesRequest{}, 5*time.Second).Result()
	require.NoError(err)

	release := make(chan struct{})
	defer close(release)
	hub.TestFancoil(0).Stall(release)

	// 4 entities, 2 in parallel, 2s per update
	res, err := context.RequestFuture(pid, domain.PollEntitiesRequest{}, 10*time.Second).Result()
	require.NoError(err)
	poll := res.(domain.PollEntitiesResponse)
	require.Equal(4, poll.Polled)
	require.Equal(4, poll.Failed)

	// the actor is idle again and accepts commands
	res, err = context.RequestFuture(pid, domain.CoverCommandRequest{
		EntityCommandRequestMixIn: domain.EntityCommandRequestMixIn{
			Platform: domain.PLATFORM_COVER,
			ObjectId: "mhs1_0042_21_cover",
		},
		Action: domain.COVER_OPEN,
	}, 5*time.Second).Result()
	require.NoError(err)
	require.NoError(res.(domain.EntityCommandResponse).ResponseError)
	require.Equal([]string{"21:MoveUp()"}, hub.Calls())

	as.Shutdown()
}

func TestPollRoundTimeout(t *testing.T) {

	require := require.New(t)

	require.Equal(3*time.Second, pollRoundTimeout(4, 2, time.Second))
	require.Equal(7*time.Second, pollRoundTimeout(5, 2, 2*time.Second))
	require.Equal(2*time.Second, pollRoundTimeout(0, 10, time.Second))
	require.Equal(5*time.Second, pollRoundTimeout(4, 0, time.Second))
}

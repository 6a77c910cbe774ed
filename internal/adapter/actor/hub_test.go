package actor

import (
	"testing"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"
	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetHubInfoHubActor(t *testing.T) {

	require := require.New(t)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewHubActor(myhomeserver.NewTestHub(), 2*time.Second, logger)
	})
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.GetHubInfoRequest{}, 5*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.GetHubInfoResponse)
	require.True(ok)
	require.NoError(resp.ResponseError)

	require.Equal("MHS1-0042", resp.Serial)
	require.Len(resp.Thermostats, 1)
	require.Len(resp.Blinds, 1)
	require.Len(resp.Fans, 1)
	require.Equal(11, resp.Thermostats[0].Id())
	require.Equal(21, resp.Blinds[0].Id())
	require.Equal(31, resp.Fans[0].Id())

	// the actor is back in its default state
	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(err)
	health := result.(domain.ActorHealthResponse)
	require.True(health.Healthy)
	require.Equal("idle", health.State)

	context.Stop(pid)

	as.Shutdown()
}

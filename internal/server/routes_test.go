package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/core/events"
	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func testEntitiesResponse(t *testing.T) domain.GetEntitiesResponse {
	ctx := context.Background()
	hub := myhomeserver.NewTestHub()
	thermostats, err := hub.Thermostats(ctx)
	require.NoError(t, err)
	blinds, err := hub.Blinds(ctx)
	require.NoError(t, err)
	fans, err := hub.Fans(ctx)
	require.NoError(t, err)

	entities := domain.NewEntities(hub.Serial, thermostats, blinds, fans)
	for _, entity := range entities {
		require.NoError(t, entity.Update(ctx))
	}
	return domain.GetEntitiesResponse{
		Serial:     hub.Serial,
		Components: events.EntitiesToDiscoveryComponents(events.BridgeDevice("myhome"), entities),
		States:     events.EntitiesStateToUpdateEvents(entities),
	}
}

func testServer(t *testing.T, healthy bool) (*Server, *actor.ActorSystem) {
	as := actor.NewActorSystem()
	entities := testEntitiesResponse(t)
	master := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		case domain.GetEntitiesRequest:
			ctx.Respond(entities)
		case domain.PollEntitiesRequest:
			ctx.Respond(domain.PollEntitiesResponse{Polled: 4, Failed: 1})
		}
	}))
	return &Server{
		rootContext: as.Root,
		masterActor: master,
	}, as
}

func TestHealthCheckHandler(t *testing.T) {

	require := require.New(t)

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("health_check: OK", rec.Body.String())

	s, as2 := testServer(t, false)
	defer as2.Shutdown()

	rec = httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestEntitiesHandler(t *testing.T) {

	require := require.New(t)

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities", nil))
	require.Equal(http.StatusOK, rec.Code)

	var view entitiesView
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal("MHS1-0042", view.Serial)
	// bridge sensor is not listed
	require.Len(view.Entities, 4)

	byKey := map[string]entityView{}
	for _, e := range view.Entities {
		byKey[domain.EntityKey(e.Platform, e.ObjectId)] = e
	}
	sensor := byKey["sensor/mhs1_0042_11_temp"]
	require.Equal(20.5, sensor.State)
	require.Equal("SCS", sensor.Attrs["protocol_name"])

	fan := byKey["fan/mhs1_0042_31"]
	require.Equal(map[string]any{"on": true, "percentage": float64(66)}, fan.State)

	// stopped blind, position unknown
	cover := byKey["cover/mhs1_0042_21_cover"]
	require.Nil(cover.State)

	var raw struct {
		Entities []map[string]any `json:"entities"`
	}
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &raw))
	covers := 0
	for _, e := range raw.Entities {
		if e["platform"] == domain.PLATFORM_COVER {
			covers++
			state, ok := e["state"]
			require.True(ok)
			require.Nil(state)
		}
	}
	require.Equal(1, covers)
}

func TestEntitiesViewCoverState(t *testing.T) {

	require := require.New(t)

	response := testEntitiesResponse(t)
	for i, state := range response.States {
		if cover, ok := state.(domain.CoverStateUpdateEvent); ok {
			cover.State = domain.COVER_OPENING
			response.States[i] = cover
		}
	}

	view := toEntitiesView(response)
	for _, e := range view.Entities {
		if e.Platform == domain.PLATFORM_COVER {
			require.Equal(domain.COVER_OPENING, e.State)
		}
	}
}

func TestPollHandler(t *testing.T) {

	require := require.New(t)

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/entities/poll", nil))
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{"polled":4,"failed":1}`, rec.Body.String())
}

func TestMetricsHandler(t *testing.T) {

	require := require.New(t)

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(http.StatusOK, rec.Code)
	require.True(strings.Contains(rec.Body.String(), "go_goroutines"))
}

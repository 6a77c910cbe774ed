package server

import (
	"net/http"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type entityView struct {
	Platform string         `json:"platform"`
	ObjectId string         `json:"object_id"`
	UniqueId string         `json:"unique_id"`
	Name     string         `json:"name"`
	Device   string         `json:"device"`
	State    any            `json:"state"`
	Attrs    map[string]any `json:"attributes,omitempty"`
}

type entitiesView struct {
	Serial   string       `json:"serial"`
	Entities []entityView `json:"entities"`
}

type pollView struct {
	Polled int `json:"polled"`
	Failed int `json:"failed"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.JSONSerializer = goccyJSONSerializer{}
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/entities", s.EntitiesHandler)
	e.POST("/entities/poll", s.PollHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) EntitiesHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetEntitiesRequest{}, 10*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.GetEntitiesResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	if response.HasResponseError() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, response.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, toEntitiesView(response))
}

func (s *Server) PollHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.PollEntitiesRequest{}, 60*time.Second).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.PollEntitiesResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	if response.HasResponseError() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, response.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, pollView{Polled: response.Polled, Failed: response.Failed})
}

func toEntitiesView(response domain.GetEntitiesResponse) entitiesView {
	states := map[string]any{}
	attributes := map[string]map[string]any{}
	for _, state := range response.States {
		switch ev := state.(type) {
		case domain.ClimateStateUpdateEvent:
			states[domain.EntityKey(domain.PLATFORM_CLIMATE, ev.Id)] = map[string]any{
				"current_temperature": ev.CurrentTemperature,
				"target_temperature":  ev.TargetTemperature,
				"hvac_mode":           ev.Mode,
				"hvac_action":         ev.Action,
			}
		case domain.CoverStateUpdateEvent:
			if ev.State == "" {
				states[domain.EntityKey(domain.PLATFORM_COVER, ev.Id)] = nil
			} else {
				states[domain.EntityKey(domain.PLATFORM_COVER, ev.Id)] = ev.State
			}
		case domain.FanStateUpdateEvent:
			states[domain.EntityKey(domain.PLATFORM_FAN, ev.Id)] = map[string]any{
				"on":         ev.On,
				"percentage": ev.Percentage,
			}
		case domain.FloatSensorUpdateEvent:
			states[domain.EntityKey(domain.PLATFORM_SENSOR, ev.Id)] = ev.Value
		case domain.AttributesUpdateEvent:
			attributes[domain.EntityKey(ev.Platform, ev.Id)] = ev.Attributes
		}
	}

	view := entitiesView{
		Serial:   response.Serial,
		Entities: []entityView{},
	}
	add := func(platform, objectId, uniqueId, name, device string) {
		key := domain.EntityKey(platform, objectId)
		view.Entities = append(view.Entities, entityView{
			Platform: platform,
			ObjectId: objectId,
			UniqueId: uniqueId,
			Name:     name,
			Device:   device,
			State:    states[key],
			Attrs:    attributes[key],
		})
	}
	for _, c := range response.Components.Climates {
		add(domain.PLATFORM_CLIMATE, c.Id, c.UniqueId, c.Name, c.Device.Id)
	}
	for _, c := range response.Components.Sensors {
		if c.Id == domain.SENSOR_ID_BRIDGE_STATE {
			continue
		}
		add(domain.PLATFORM_SENSOR, c.Id, c.UniqueId, c.Name, c.Device.Id)
	}
	for _, c := range response.Components.Covers {
		add(domain.PLATFORM_COVER, c.Id, c.UniqueId, c.Name, c.Device.Id)
	}
	for _, c := range response.Components.Fans {
		add(domain.PLATFORM_FAN, c.Id, c.UniqueId, c.Name, c.Device.Id)
	}
	return view
}

package domain

import (
	"errors"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_HUB          = "hub"
	ACTOR_ID_ENTITIES     = "entities"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

var ErrEntitiesNotReady = errors.New("entities not ready")

type GetHubInfoRequest struct {
	ActorRequestMixIn
}

type GetHubInfoResponse struct {
	ActorResponseMixIn
	Serial      string
	Thermostats []myhomeserver.Thermostat
	Blinds      []myhomeserver.Shutter
	Fans        []myhomeserver.Fancoil
}

type GetEntitiesRequest struct {
	ActorRequestMixIn
}

// GetEntitiesResponse is a copy of the entities taken by their owner, safe to
// read from any actor.
type GetEntitiesResponse struct {
	ActorResponseMixIn
	Serial     string
	Components DiscoveryComponents
	States     []any
}

type PollEntitiesRequest struct {
	ActorRequestMixIn
}

type PollEntitiesResponse struct {
	ActorResponseMixIn
	Polled int
	Failed int
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Components DiscoveryComponents
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// RepublishDiscoveryRequest asks the discovery actor to announce every
// entity again, e.g. after Home Assistant restarted.
type RepublishDiscoveryRequest struct {
	ActorRequestMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

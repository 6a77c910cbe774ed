package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/config"
	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	HADISCOVERY_RETRY_INTERVAL = 5 * time.Second
)

// HADiscoveryActor announces the entities to Home Assistant once both the
// MQTT and the entities actors are ready, and again on every
// RepublishDiscoveryRequest.
type HADiscoveryActor struct {
	config               *config.Config
	behavior             actor.Behavior
	stash                *actorutil.Stash
	scheduler            *scheduler.TimerScheduler
	entitiesActor        *actor.PID
	mqttActor            *actor.PID
	entitiesActorHealthy bool
	mqttActorHealthy     bool
	healthyRecv          int
	published            int

	logger *zap.Logger
}

type discoveryRetry struct {
}

func NewHADiscoveryActor(config *config.Config, entitiesActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:        config,
		entitiesActor: entitiesActor,
		mqttActor:     mqttActor,
		behavior:      actor.NewBehavior(),
		stash:         &actorutil.Stash{},
		logger:        actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.checkHealth(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) checkHealth(ctx actor.Context) {
	// Check Entities and MQTT actor healthy
	state.healthyRecv = 0
	state.entitiesActorHealthy = false
	state.mqttActorHealthy = false
	// Entities Actor Request
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.entitiesActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_ENTITIES,
			Healthy: false,
		}
	})
	// MQTT Actor Request
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: false,
		}
	})
	state.behavior.Become(state.WaitingHealthyReceive)
}

func (state *HADiscoveryActor) retryLater(ctx actor.Context) {
	state.scheduler.RequestOnce(HADISCOVERY_RETRY_INTERVAL, ctx.Self(), discoveryRetry{})
	state.behavior.Become(state.WaitingRetryReceive)
	state.stash.UnstashAll(ctx)
}

func (state *HADiscoveryActor) WaitingRetryReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case discoveryRetry:
		state.logger.Debug("hadiscovery@retry: retry")
		state.checkHealth(ctx)
	case domain.RepublishDiscoveryRequest:
		// a retry is already scheduled
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "retry",
		})
	default:
		state.logger.Debug("hadiscovery@retry: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_ENTITIES:
				state.entitiesActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.entitiesActorHealthy && state.mqttActorHealthy {
				// Ask Entities GetEntitiesRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.entitiesActor, domain.GetEntitiesRequest{}, 5*time.Second), func(err error) any {
					return domain.GetEntitiesResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingEntitiesReceive)
			} else {
				state.logger.Info("hadiscovery@healthcheck entities or MQTT not ready, retrying",
					zap.Bool("entities", state.entitiesActorHealthy), zap.Bool("mqtt", state.mqttActorHealthy))
				state.retryLater(ctx)
			}
		}
	case domain.RepublishDiscoveryRequest:
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingEntitiesReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetEntitiesResponse:
		if msg.HasResponseError() {
			state.logger.Warn("hadiscovery@entities: GetEntitiesResponse error", zap.Error(msg.GetResponseError()))
			state.retryLater(ctx)
			return
		}
		state.logger.Debug("hadiscovery@entities: GetEntitiesResponse", zap.Int("components", msg.Components.Count()))

		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.PublishDiscoveryRequest{
			Components: msg.Components,
		}, 10*time.Second), func(err error) any {
			return domain.PublishDiscoveryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// Home Assistant does not keep non retained states
		for _, ev := range msg.States {
			if event, ok := ev.(domain.SensorUpdateEvent); ok {
				ctx.Send(state.mqttActor, domain.PublishSensorUpdateRequest{
					Event: event,
				})
			}
		}
		state.behavior.Become(state.WaitingPublishReceive)
	case domain.RepublishDiscoveryRequest:
	default:
		state.logger.Debug("hadiscovery@entities: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingPublishReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.PublishDiscoveryResponse:
		if msg.HasResponseError() {
			state.logger.Warn("hadiscovery@publish: PublishDiscoveryResponse error", zap.Error(msg.GetResponseError()))
			state.retryLater(ctx)
			return
		}
		state.published++
		state.logger.Info("hadiscovery@publish: discovery published", zap.Int("times", state.published))
		state.behavior.Become(state.DoneReceive)
		state.stash.UnstashAll(ctx)
	case domain.RepublishDiscoveryRequest:
	default:
		state.logger.Debug("hadiscovery@publish: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) DoneReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "done",
		})
	case domain.RepublishDiscoveryRequest:
		state.logger.Debug("hadiscovery@done: RepublishDiscoveryRequest")
		state.checkHealth(ctx)
	default:
		state.logger.Debug("hadiscovery@done: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/util/actorutil"
	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HubActor serializes enumeration requests to the MyHOMEServer.
type HubActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	hub      myhomeserver.Hub
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewHubActor(hub myhomeserver.Hub, timeout time.Duration, logger *zap.Logger) *HubActor {
	act := &HubActor{
		hub:      hub,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_HUB, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *HubActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HubActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hub@default started")
	case domain.ActorHealthRequest:
		state.logger.Debug("hub@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HUB,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetHubInfoRequest:
		state.logger.Debug("hub@default: GetHubInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getHubInfo),
			mapTaskResult[domain.GetHubInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetHubInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingHub)
	default:
		state.logger.Debug("hub@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HubActor) WaitingHub(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("hub@WaitingHub backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HUB,
			Healthy: true,
			State:   "busy",
		})
	default:
		state.logger.Debug("hub@WaitingHub stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *HubActor) getHubInfo() (*domain.GetHubInfoResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	serial, err := a.hub.GetServerSerial(ctx)
	if err != nil {
		a.logger.Error("hub: could not read server serial", zap.Error(err))
		return nil, err
	}
	thermostats, err := a.hub.Thermostats(ctx)
	if err != nil {
		a.logger.Error("hub: could not list thermostats", zap.Error(err))
		return nil, err
	}
	blinds, err := a.hub.Blinds(ctx)
	if err != nil {
		a.logger.Error("hub: could not list shutters", zap.Error(err))
		return nil, err
	}
	fans, err := a.hub.Fans(ctx)
	if err != nil {
		a.logger.Error("hub: could not list fan coils", zap.Error(err))
		return nil, err
	}
	a.logger.Info("hub: objects found", zap.String("serial", serial), zap.Int("thermostats", len(thermostats)),
		zap.Int("shutters", len(blinds)), zap.Int("fancoils", len(fans)))
	return &domain.GetHubInfoResponse{
		Serial:      serial,
		Thermostats: thermostats,
		Blinds:      blinds,
		Fans:        fans,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}

package actor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/config"
	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/core/events"
	"github.com/berfenger/myhome2mqtt/internal/metrics"
	. "github.com/berfenger/myhome2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EntitiesActor owns every entity. Polls and commands never overlap: while
// one is running, other messages are stashed.
type EntitiesActor struct {
	ActorWithStates
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	hubActor    *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	serial      string
	entities    []domain.Entity
	byKey       map[string]domain.Entity

	logger *zap.Logger
}

type entitiesTick struct {
}

type pollRoundResult struct {
	polled  int
	failed  int
	tick    bool
	replyTo *actor.PID
}

type commandResult struct {
	key      string
	command  string
	platform string
	err      error
	replyTo  *actor.PID
}

func NewEntitiesActor(config *config.Config, hubActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *EntitiesActor {
	act := &EntitiesActor{
		config:      config,
		hubActor:    hubActor,
		stash:       &Stash{},
		eventStream: eventStream,
		byKey:       map[string]domain.Entity{},
		logger:      ActorLogger(domain.ACTOR_ID_ENTITIES, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(EntitiesStartingState{
		actor: act,
	})
	return act
}

func (state *EntitiesActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type EntitiesStartingState struct {
	ActorState
	actor *EntitiesActor
}

func (state EntitiesStartingState) Name() string {
	return "starting"
}

func (state EntitiesStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("entities@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.hubActor, domain.GetHubInfoRequest{}, state.actor.config.MyHOMEServer.Timeout()+time.Second), func(err error) any {
			return domain.GetHubInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.actor.Become(EntitiesWaitingInfoState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("entities@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting info state

type EntitiesWaitingInfoState struct {
	ActorState
	actor *EntitiesActor
}

func (state EntitiesWaitingInfoState) Name() string {
	return "waitingInfo"
}

func (state EntitiesWaitingInfoState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetHubInfoResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("entities@waitingInfo GetHubInfoResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.logger.Debug("entities@waitingInfo GetHubInfoResponse")
		state.actor.setEntities(msg)
		state.actor.Become(EntitiesIdleState{
			actor: state.actor,
		})
		// first round right away
		ctx.Send(ctx.Self(), entitiesTick{})
		state.actor.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_ENTITIES,
			Healthy: false,
			State:   state.Name(),
		})
	case domain.GetEntitiesRequest:
		ForRequest(msg).Respond(ctx, domain.GetEntitiesResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: domain.ErrEntitiesNotReady,
			},
		})
	default:
		state.actor.logger.Debug("entities@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type EntitiesIdleState struct {
	ActorState
	actor *EntitiesActor
}

func (state EntitiesIdleState) Name() string {
	return "idle"
}

func (state EntitiesIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("entities@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_ENTITIES,
			Healthy: true,
			State:   state.Name(),
		})
	case entitiesTick:
		state.actor.logger.Debug("entities@idle: tick")
		state.actor.startPollRound(ctx, true, nil)
	case domain.PollEntitiesRequest:
		state.actor.logger.Debug("entities@idle: PollEntitiesRequest")
		state.actor.startPollRound(ctx, false, ForRequest(msg).ReplyTo(ctx))
	case domain.GetEntitiesRequest:
		state.actor.logger.Debug("entities@idle: GetEntitiesRequest")
		ForRequest(msg).Respond(ctx, domain.GetEntitiesResponse{
			Serial:     state.actor.serial,
			Components: events.EntitiesToDiscoveryComponents(events.BridgeDevice(state.actor.config.MQTT.BaseTopic), state.actor.entities),
			States:     events.EntitiesStateToUpdateEvents(state.actor.entities),
		})
	case domain.EntityCommandRequest:
		state.actor.logger.Debug("entities@idle: command", zap.String("entity", msg.EntityKey()), zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.startCommand(ctx, msg)
	default:
		state.actor.logger.Debug("entities@idle: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Busy state, a poll round or a command is running

type EntitiesBusyState struct {
	ActorState
	actor *EntitiesActor
	task  string
}

func (state EntitiesBusyState) Name() string {
	return state.task
}

func (state EntitiesBusyState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_ENTITIES,
			Healthy: true,
			State:   state.Name(),
		})
	case pollRoundResult:
		state.actor.logger.Debug("entities@polling: round done", zap.Int("polled", msg.polled), zap.Int("failed", msg.failed))
		for _, ev := range events.EntitiesStateToUpdateEvents(state.actor.entities) {
			state.actor.eventStream.Publish(ev)
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, domain.PollEntitiesResponse{
				Polled: msg.polled,
				Failed: msg.failed,
			})
		}
		if msg.tick {
			// schedule next tick
			state.actor.scheduler.RequestOnce(state.actor.config.MonitorConfig.PollInterval(), ctx.Self(), entitiesTick{})
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case commandResult:
		metrics.EntityCommandsTotal.WithLabelValues(msg.platform, metrics.Result(msg.err)).Inc()
		if msg.err != nil {
			state.actor.logger.Error("entities@command: command failed", zap.String("entity", msg.key),
				zap.String("command", msg.command), zap.Error(msg.err))
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, domain.EntityCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.err,
				},
				Key:     msg.key,
				Command: msg.command,
			})
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("entities@busy: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state *EntitiesActor) setEntities(info domain.GetHubInfoResponse) {
	state.serial = info.Serial
	state.entities = domain.NewEntities(info.Serial, info.Thermostats, info.Blinds, info.Fans)
	state.byKey = make(map[string]domain.Entity, len(state.entities))

	counts := map[string]int{
		domain.PLATFORM_CLIMATE: 0,
		domain.PLATFORM_SENSOR:  0,
		domain.PLATFORM_COVER:   0,
		domain.PLATFORM_FAN:     0,
	}
	for _, entity := range state.entities {
		state.byKey[domain.EntityKey(entity.Platform(), entity.ObjectId())] = entity
		counts[entity.Platform()]++
	}
	for platform, count := range counts {
		metrics.Entities.WithLabelValues(platform).Set(float64(count))
	}
	state.logger.Info("entities: entities created", zap.String("serial", info.Serial), zap.Int("entities", len(state.entities)))
}

func (state *EntitiesActor) startPollRound(ctx actor.Context, tick bool, replyTo *actor.PID) {
	entities := state.entities
	parallel := state.config.MonitorConfig.ParallelUpdates
	timeout := state.config.MyHOMEServer.Timeout()
	logger := state.logger

	NewBackgroundTaskNoError(ctx, func() *pollRoundResult {
		start := time.Now()
		defer func() {
			metrics.PollRoundDuration.Observe(time.Since(start).Seconds())
		}()

		var failed atomic.Int32
		g := errgroup.Group{}
		g.SetLimit(parallel)
		for _, entity := range entities {
			entity := entity
			g.Go(func() error {
				updateCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				err := entity.Update(updateCtx)
				metrics.EntityUpdatesTotal.WithLabelValues(entity.Platform(), metrics.Result(err)).Inc()
				if err != nil {
					// previous snapshot is kept
					failed.Add(1)
					logger.Warn("entities: update failed", zap.String("entity", entity.UniqueId()), zap.Error(err))
				}
				return nil
			})
		}
		_ = g.Wait()
		return &pollRoundResult{
			polled:  len(entities),
			failed:  int(failed.Load()),
			tick:    tick,
			replyTo: replyTo,
		}
	}).Recover(func(err error) pollRoundResult {
		logger.Error("entities: poll round failed", zap.Error(err))
		return pollRoundResult{
			polled:  len(entities),
			failed:  len(entities),
			tick:    tick,
			replyTo: replyTo,
		}
	}).WithTimeout(pollRoundTimeout(len(entities), parallel, timeout)).PipeTo(ctx.Self())

	state.BecomeStacked(EntitiesBusyState{
		actor: state,
		task:  "polling",
	})
}

// pollRoundTimeout bounds a whole round: updates run in waves of parallel,
// each wave bounded by the per-update timeout.
func pollRoundTimeout(entities, parallel int, timeout time.Duration) time.Duration {
	if parallel < 1 {
		parallel = 1
	}
	waves := (entities + parallel - 1) / parallel
	if waves < 1 {
		waves = 1
	}
	return time.Duration(waves)*timeout + time.Second
}

func (state *EntitiesActor) startCommand(ctx actor.Context, cmd domain.EntityCommandRequest) {
	replyTo := ForRequest(cmd).ReplyTo(ctx)
	command := fmt.Sprintf("%T", cmd)

	entity, ok := state.byKey[cmd.EntityKey()]
	if !ok {
		err := fmt.Errorf("%w: %s", domain.ErrEntityNotFound, cmd.EntityKey())
		state.logger.Warn("entities@idle: unknown entity", zap.Error(err))
		metrics.EntityCommandsTotal.WithLabelValues("unknown", metrics.RESULT_ERROR).Inc()
		if replyTo != nil {
			ctx.Send(replyTo, domain.EntityCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
				Key:     cmd.EntityKey(),
				Command: command,
			})
		}
		return
	}

	timeout := state.config.MyHOMEServer.Timeout()
	result := commandResult{
		key:      cmd.EntityKey(),
		command:  command,
		platform: entity.Platform(),
		replyTo:  replyTo,
	}
	NewBackgroundTaskNoError(ctx, func() *commandResult {
		cmdCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res := result
		res.err = domain.ExecuteCommand(cmdCtx, entity, cmd)
		return &res
	}).Recover(func(err error) commandResult {
		res := result
		res.err = err
		return res
	}).WithTimeout(timeout + time.Second).PipeTo(ctx.Self())

	state.BecomeStacked(EntitiesBusyState{
		actor: state,
		task:  "command",
	})
}

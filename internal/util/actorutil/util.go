package actorutil

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"
	"github.com/berfenger/myhome2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

// SelfSender returns a function that sends to the calling actor from any
// goroutine, without touching the actor context.
func SelfSender(ctx actor.Context) func(msg any) {
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	return func(msg any) {
		root.Send(self, msg)
	}
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a command received from Home Assistant to
// the request understood by the entity it targets.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.EntityCommandRequest, error) {
	target := domain.EntityCommandRequestMixIn{
		Platform: cmd.Command,
		ObjectId: cmd.DeviceId,
	}
	payload := strings.TrimSpace(cmd.Payload)

	switch {
	case cmd.Command == domain.PLATFORM_CLIMATE && cmd.Param == mqtt.COMMAND_PARAM_MODE:
		mode := domain.HVACMode(strings.ToLower(payload))
		if mode != domain.HVAC_MODE_HEAT && mode != domain.HVAC_MODE_OFF {
			return nil, fmt.Errorf("%w: hvac mode %q", domain.ErrUnsupportedCommand, payload)
		}
		return domain.SetHVACModeRequest{
			EntityCommandRequestMixIn: target,
			Mode:                      mode,
		}, nil

	case cmd.Command == domain.PLATFORM_CLIMATE && cmd.Param == mqtt.COMMAND_PARAM_TEMPERATURE:
		value, err := parseFiniteFloat(payload)
		if err != nil {
			return nil, err
		}
		return domain.SetTemperatureRequest{
			EntityCommandRequestMixIn: target,
			Temperature:               value,
		}, nil

	case cmd.Command == domain.PLATFORM_COVER && cmd.Param == "":
		action := domain.CoverAction(strings.ToUpper(payload))
		switch action {
		case domain.COVER_OPEN, domain.COVER_CLOSE, domain.COVER_STOP:
			return domain.CoverCommandRequest{
				EntityCommandRequestMixIn: target,
				Action:                    action,
			}, nil
		}
		return nil, fmt.Errorf("%w: cover action %q", domain.ErrUnsupportedCommand, payload)

	case cmd.Command == domain.PLATFORM_FAN && cmd.Param == "":
		switch strings.ToUpper(payload) {
		case mqtt.MQTT_PAYLOAD_ON:
			return domain.FanTurnOnRequest{EntityCommandRequestMixIn: target}, nil
		case mqtt.MQTT_PAYLOAD_OFF:
			return domain.FanTurnOffRequest{EntityCommandRequestMixIn: target}, nil
		}
		return nil, fmt.Errorf("%w: fan payload %q", domain.ErrUnsupportedCommand, payload)

	case cmd.Command == domain.PLATFORM_FAN && cmd.Param == mqtt.COMMAND_PARAM_PERCENTAGE:
		value, err := parseFiniteFloat(payload)
		if err != nil {
			return nil, err
		}
		if value < 0 {
			return nil, fmt.Errorf("%w: negative percentage %s", domain.ErrUnsupportedCommand, payload)
		}
		percentage := int(math.Ceil(math.Min(value, 100)))
		// 0% means off
		if percentage == 0 {
			return domain.FanTurnOffRequest{EntityCommandRequestMixIn: target}, nil
		}
		return domain.FanSetPercentageRequest{
			EntityCommandRequestMixIn: target,
			Percentage:                percentage,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnsupportedCommand, cmd.Command, cmd.Param)
}

func parseFiniteFloat(payload string) (float64, error) {
	value, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: not a finite number %q", domain.ErrUnsupportedCommand, payload)
	}
	return value, nil
}

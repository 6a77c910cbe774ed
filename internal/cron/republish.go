package cron

import (
	"context"

	"github.com/berfenger/myhome2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const (
	JOB_ID_DISCOVERY_REPUBLISH = "discovery_republish"
)

// StartDiscoveryRepublish sends a RepublishDiscoveryRequest to target on every
// fire of the cron expression. The scheduler stops when ctx is done.
func StartDiscoveryRepublish(ctx context.Context, expression string, rootContext *actor.RootContext, target *actor.PID, logger *zap.Logger) (quartz.Scheduler, error) {
	trigger, err := quartz.NewCronTrigger(expression)
	if err != nil {
		return nil, err
	}

	republish := job.NewFunctionJob[bool](func(_ context.Context) (bool, error) {
		logger.Debug("cron: republish discovery")
		rootContext.Send(target, domain.RepublishDiscoveryRequest{})
		return true, nil
	})

	scheduler := quartz.NewStdScheduler()
	scheduler.Start(ctx)

	err = scheduler.ScheduleJob(quartz.NewJobDetail(republish, quartz.NewJobKey(JOB_ID_DISCOVERY_REPUBLISH)), trigger)
	if err != nil {
		scheduler.Stop()
		return nil, err
	}
	logger.Info("cron: discovery republish scheduled", zap.String("cron", expression))
	return scheduler, nil
}

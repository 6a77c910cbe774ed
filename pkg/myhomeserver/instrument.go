package myhomeserver

import (
	"time"

	"go.uber.org/zap"
)

type Instrument struct {
	RecordTime func(fnName string, callTime time.Duration)
}

func RecordTimer(name string, instrument []Instrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}

func traceLoggerInstrumentation(logger *zap.Logger) Instrument {
	return Instrument{
		RecordTime: func(fnName string, callTime time.Duration) {
			logger.Debug("myhomeserver call", zap.String("fn", fnName), zap.Int64("millis", callTime.Milliseconds()))
		},
	}
}

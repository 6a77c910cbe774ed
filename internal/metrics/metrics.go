package metrics

import (
	"time"

	"github.com/berfenger/myhome2mqtt/pkg/myhomeserver"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RESULT_OK    = "ok"
	RESULT_ERROR = "error"
)

var (
	// Hub client metrics
	HubCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "myhome2mqtt_hub_call_duration_seconds",
		Help:    "Duration of MyHOMEServer calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"fn"})

	// Polling metrics
	EntityUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myhome2mqtt_entity_updates_total",
		Help: "The total number of entity updates by platform and result",
	}, []string{"platform", "result"})

	PollRoundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "myhome2mqtt_poll_round_duration_seconds",
		Help:    "Duration of a full poll round over every entity",
		Buckets: prometheus.DefBuckets,
	})

	Entities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "myhome2mqtt_entities",
		Help: "Number of entities exposed by platform",
	}, []string{"platform"})

	// Command metrics
	EntityCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "myhome2mqtt_entity_commands_total",
		Help: "The total number of commands sent to entities by platform and result",
	}, []string{"platform", "result"})

	// MQTT metrics
	MQTTConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "myhome2mqtt_mqtt_connection_status",
		Help: "Status of the MQTT connection (1=connected, 0=disconnected)",
	})

	DiscoveryPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "myhome2mqtt_discovery_published_total",
		Help: "The total number of Home Assistant discovery configs published",
	})
)

// HubInstrument records hub call latency into HubCallDuration.
func HubInstrument() myhomeserver.Instrument {
	return myhomeserver.Instrument{
		RecordTime: func(fnName string, callTime time.Duration) {
			HubCallDuration.WithLabelValues(fnName).Observe(callTime.Seconds())
		},
	}
}

func Result(err error) string {
	if err != nil {
		return RESULT_ERROR
	}
	return RESULT_OK
}

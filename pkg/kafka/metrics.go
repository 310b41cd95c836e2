package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsSubsystem = "kafka_producer"

var (
	messagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "messages_published_total",
		Help:      "Events written to Kafka, by topic and event type.",
	}, []string{"topic", "event_type"})

	publishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: metricsSubsystem,
		Name:      "publish_errors_total",
		Help:      "Failed Kafka writes, by topic.",
	}, []string{"topic"})

	publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: metricsSubsystem,
		Name:      "publish_duration_seconds",
		Help:      "Time spent in a single Kafka write.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"topic"})

	messageBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: metricsSubsystem,
		Name:      "message_bytes",
		Help:      "Encoded event envelope size.",
		Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
	}, []string{"topic"})
)

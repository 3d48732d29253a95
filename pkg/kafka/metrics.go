package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Metrics holds the producer collectors.
type Metrics struct {
	published    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	breakerState prometheus.Gauge
}

// NewMetrics creates the producer collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "r8m8",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Events written to Kafka.",
		}, []string{"topic", "type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "r8m8",
			Subsystem: "kafka",
			Name:      "publish_errors_total",
			Help:      "Events that could not be written, including ones rejected by the open breaker.",
		}, []string{"topic", "type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "r8m8",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Time spent writing one event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "r8m8",
			Subsystem: "kafka",
			Name:      "circuit_breaker_state",
			Help:      "Producer circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}
	reg.MustRegister(m.published, m.failed, m.duration, m.breakerState)
	return m
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the domain counters exported by the services.
type Metrics struct {
	reviewsCreated prometheus.Counter
	loginFailures  *prometheus.CounterVec
	loginLockouts  prometheus.Counter
	aspectChanges  *prometheus.CounterVec
}

// NewMetrics creates the domain counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "r8m8",
			Name:      "reviews_created_total",
			Help:      "Reviews successfully created.",
		}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "r8m8",
			Name:      "login_failures_total",
			Help:      "Rejected login attempts by reason.",
		}, []string{"reason"}),
		loginLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "r8m8",
			Name:      "login_lockouts_total",
			Help:      "Failed attempts that locked an (email, ip) pair.",
		}),
		aspectChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "r8m8",
			Name:      "aspect_changes_total",
			Help:      "Aspect mutations by operation.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.reviewsCreated, m.loginFailures, m.loginLockouts, m.aspectChanges)
	return m
}

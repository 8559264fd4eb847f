// Package metrics exports registry lifecycle events as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kizuna"

// Observer implements kizuna.Observer on top of Prometheus collectors.
type Observer struct {
	registered   prometheus.Counter
	initialized  prometheus.Counter
	failed       *prometheus.CounterVec
	unsatisfied  prometheus.Counter
	initDuration prometheus.Histogram
}

// NewObserver creates an Observer and registers its collectors with reg.
// Labels are attached to every collector as constant labels.
func NewObserver(reg prometheus.Registerer, labels prometheus.Labels) (*Observer, error) {
	o := &Observer{
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "services_registered_total",
			Help:        "Total number of registered services",
			ConstLabels: labels,
		}),
		initialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "services_initialized_total",
			Help:        "Total number of initialized services",
			ConstLabels: labels,
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "service_init_failures_total",
			Help:        "Total number of service initialization failures",
			ConstLabels: labels,
		}, []string{"service"}),
		unsatisfied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "services_unsatisfied_total",
			Help:        "Total number of services left uninitialized by an activation",
			ConstLabels: labels,
		}),
		initDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "service_init_duration_seconds",
			Help:        "Duration of service Init calls in seconds",
			Buckets:     []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{o.registered, o.initialized, o.failed, o.unsatisfied, o.initDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return o, nil
}

func (o *Observer) Registered(string) {
	o.registered.Inc()
}

func (o *Observer) Initialized(_ string, elapsed time.Duration) {
	o.initialized.Inc()
	o.initDuration.Observe(elapsed.Seconds())
}

func (o *Observer) InitFailed(id string, _ error) {
	o.failed.WithLabelValues(id).Inc()
}

func (o *Observer) Unsatisfied(string) {
	o.unsatisfied.Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Validations tracks init data verification outcomes.
type Validations struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewValidations(reg prometheus.Registerer) *Validations {
	v := &Validations{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "initdata",
			Name:      "validations_total",
			Help:      "Init data validations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "initdata",
			Name:      "validation_duration_seconds",
			Help:      "Time spent verifying init data.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
	}
	if reg != nil {
		reg.MustRegister(v.total, v.duration)
	}
	return v
}

func (v *Validations) Observe(result string, elapsed time.Duration) {
	if v == nil {
		return
	}
	v.total.WithLabelValues(result).Inc()
	v.duration.Observe(elapsed.Seconds())
}

// HTTP holds request collectors for the gin router.
type HTTP struct {
	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	h := &HTTP{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(h.Requests, h.Durations)
	}
	return h
}

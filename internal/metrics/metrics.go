package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful detached service launches.",
		}, []string{"service"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of stops (graceful or kill).",
		}, []string{"service"},
	)
	healthWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roost",
			Subsystem: "service",
			Name:      "health_wait_seconds",
			Help:      "Time from launch until the readiness probe passed.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"},
	)

	jobsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "jobs",
			Name:      "submitted_total",
			Help:      "Agent jobs accepted into the queue.",
		}, []string{"persona"},
	)
	jobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Agent jobs finished, labeled by terminal status.",
		}, []string{"status"},
	)
	jobsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "jobs",
			Name:      "rejected_total",
			Help:      "Agent jobs rejected because the queue was full.",
		},
	)
	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "roost",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Wall-clock execution time of agent jobs.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "roost",
			Subsystem: "jobs",
			Name:      "queue_depth",
			Help:      "Jobs currently waiting in the queue.",
		},
	)
	workersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "roost",
			Subsystem: "jobs",
			Name:      "workers_busy",
			Help:      "Workers currently executing a job.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, labeled by service, method and status code.",
		}, []string{"service", "method", "code"},
	)
	inboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roost",
			Subsystem: "gateway",
			Name:      "inbound_total",
			Help:      "Inbound channel messages, labeled by channel and outcome.",
		}, []string{"channel", "outcome"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceStops, healthWait,
		jobsSubmitted, jobsCompleted, jobsRejected, jobDuration, queueDepth, workersBusy,
		httpRequests, inboundMessages,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncServiceStart(service string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(service).Inc()
	}
}

func IncServiceStop(service string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(service).Inc()
	}
}

func ObserveHealthWait(service string, d time.Duration) {
	if regOK.Load() {
		healthWait.WithLabelValues(service).Observe(d.Seconds())
	}
}

func IncJobSubmitted(persona string) {
	if regOK.Load() {
		jobsSubmitted.WithLabelValues(persona).Inc()
	}
}

func IncJobCompleted(status string) {
	if regOK.Load() {
		jobsCompleted.WithLabelValues(status).Inc()
	}
}

func IncJobRejected() {
	if regOK.Load() {
		jobsRejected.Inc()
	}
}

func ObserveJobDuration(d time.Duration) {
	if regOK.Load() {
		jobDuration.Observe(d.Seconds())
	}
}

func SetQueueDepth(n int) {
	if regOK.Load() {
		queueDepth.Set(float64(n))
	}
}

func SetWorkersBusy(n int) {
	if regOK.Load() {
		workersBusy.Set(float64(n))
	}
}

func IncHTTPRequest(service, method, code string) {
	if regOK.Load() {
		httpRequests.WithLabelValues(service, method, code).Inc()
	}
}

func IncInbound(channel, outcome string) {
	if regOK.Load() {
		inboundMessages.WithLabelValues(channel, outcome).Inc()
	}
}

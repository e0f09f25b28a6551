package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/54b3r/rugcheck-go/internal/checker"
)

// namespace prefixes every metric the server registers.
const namespace = "rugcheck"

// Outcome label values for check metrics.
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeTimeout     = "timeout"
	outcomeUpstream    = "upstream"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// It is created per Server so tests can pass a fresh prometheus.Registry.
type serverMetrics struct {
	// checkRequestsTotal counts POST /check requests by outcome.
	checkRequestsTotal *prometheus.CounterVec
	// checkDurationSeconds records end-to-end pipeline latency by outcome.
	checkDurationSeconds *prometheus.HistogramVec
	// checkStageSeconds records per-stage latency of successful checks.
	checkStageSeconds *prometheus.HistogramVec
	// checkSources records how many chunks each answer was grounded on.
	checkSources prometheus.Histogram
	// checkInFlight is the number of pipeline runs in progress.
	checkInFlight prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		checkRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "requests_total",
			Help:      "Total number of POST /check requests, partitioned by outcome.",
		}, []string{"outcome"}),

		checkDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of the rug-check pipeline.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),

		checkStageSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage for successful checks.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		checkSources: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "sources",
			Help:      "Number of retrieved chunks an answer was grounded on.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		}),

		checkInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "check",
			Name:      "in_flight",
			Help:      "Number of rug-check pipeline runs in progress.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests, partitioned by method, handler, and status code.",
		}, []string{"method", "handler", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "handler"}),
	}
}

// observeStages records the stage timings of one successful check.
func (m *serverMetrics) observeStages(t checker.Timings) {
	m.checkStageSeconds.WithLabelValues("profiles").Observe(t.Profiles.Seconds())
	m.checkStageSeconds.WithLabelValues("index").Observe(t.Index.Seconds())
	m.checkStageSeconds.WithLabelValues("answer").Observe(t.Answer.Seconds())
}

// instrument wraps next so every request is counted and timed under the
// logical handler name rather than the raw path.
func (s *Server) instrument(handler string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)
		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, handler, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, handler).Observe(time.Since(start).Seconds())
	})
}

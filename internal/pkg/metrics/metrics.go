package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ebdashboard"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	purchaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "transitions_total",
			Help:      "Purchase request status transitions, by target status and outcome.",
		},
		[]string{"to", "outcome"},
	)

	limitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "limit_rejections_total",
			Help:      "Purchase requests refused because they exceed the remaining limit.",
		},
	)

	reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconciliation passes, by success.",
		},
		[]string{"success"},
	)

	reconcileRepaired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "repaired_total",
			Help:      "Approved requests whose missing ledger entry was written by reconciliation.",
		},
	)

	creditTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credits",
			Name:      "transitions_total",
			Help:      "Carbon credit batches entering a status, including newly generated pending ones.",
		},
		[]string{"status"},
	)

	creditsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credits",
			Name:      "generated_tonnes_total",
			Help:      "Carbon credits generated, in tonnes of CO2e.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		purchaseTransitions,
		limitRejections,
		reconcileRuns,
		reconcileRepaired,
		creditTransitions,
		creditsGenerated,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count, latency and in-flight gauge per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a purchase transition attempt; outcome is "ok" or an error kind
func RecordTransition(to, outcome string) {
	purchaseTransitions.WithLabelValues(to, outcome).Inc()
}

// RecordLimitRejection counts a request refused by the limit policy
func RecordLimitRejection() {
	limitRejections.Inc()
}

// RecordReconcile counts a reconciliation pass and the entries it repaired
func RecordReconcile(repaired int, success bool) {
	reconcileRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	reconcileRepaired.Add(float64(repaired))
}

// RecordCreditsGenerated counts a new pending credit batch and its size
func RecordCreditsGenerated(tonnes float64) {
	creditTransitions.WithLabelValues("pending").Inc()
	creditsGenerated.Add(tonnes)
}

// RecordCreditTransition counts a credit batch moving to status
func RecordCreditTransition(status string) {
	creditTransitions.WithLabelValues(status).Inc()
}

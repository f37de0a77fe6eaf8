package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberledger_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memberledger_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberledger_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	statsCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberledger_stats_cache_lookups_total",
		Help: "Statistics cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	statsComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memberledger_stats_compute_duration_seconds",
		Help:    "Time spent computing the statistics snapshot from storage",
		Buckets: prometheus.DefBuckets,
	})

	recordWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberledger_record_writes_total",
		Help: "Writes to members, contributions and users by operation and result",
	}, []string{"resource", "operation", "result"})

	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "memberledger_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half open)",
	}, []string{"dependency"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt; result is success, invalid or error.
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveStatsCache counts a statistics cache lookup
func ObserveStatsCache(result string) {
	statsCacheLookups.WithLabelValues(result).Inc()
}

// ObserveStatsCompute records how long a snapshot took to build
func ObserveStatsCompute(duration time.Duration) {
	statsComputeDuration.Observe(duration.Seconds())
}

// ObserveWrite counts a create, update or delete
func ObserveWrite(resource, operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	recordWrites.WithLabelValues(resource, operation, result).Inc()
}

// SetCircuitState exports a breaker state for a dependency
func SetCircuitState(dependency string, state int) {
	circuitState.WithLabelValues(dependency).Set(float64(state))
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exported by the world server.
type Metrics struct {
	CommandQueueDepth   prometheus.Gauge
	TickDuration        prometheus.Histogram
	TickOverrun         prometheus.Counter
	OracleLatency       *prometheus.HistogramVec
	OracleErrorTotal    *prometheus.CounterVec
	OracleTokensTotal   *prometheus.CounterVec
	EventPropagationLen prometheus.Histogram
	CombatSwingsTotal   prometheus.Counter
	ActiveSessions      prometheus.Gauge
}

// NewMetrics registers and returns the server's Metrics instruments against
// reg. A nil reg falls back to the default Prometheus registerer, matching
// the pattern used for single-process deployments.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}
	return &Metrics{
		CommandQueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "command_queue_depth",
			Help: "Number of commands currently buffered in the Command Queue",
		}),
		TickDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "game_loop_tick_duration_ms",
			Help:    "Wall-clock duration of a single game loop tick",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		TickOverrun: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "game_loop_tick_overrun_total",
			Help: "Number of ticks whose processing exceeded the tick interval",
		}),
		OracleLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_call_latency_ms",
			Help:    "Latency of LLM Oracle calls",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}, []string{"operation"}),
		OracleErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_error_total",
			Help: "LLM Oracle calls that returned a non-fatal error",
		}, []string{"operation", "reason"}),
		OracleTokensTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_tokens_total",
			Help: "Tokens consumed by LLM Oracle calls",
		}, []string{"operation", "kind"}),
		EventPropagationLen: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "event_propagation_recipients",
			Help:    "Number of recipients a single game event was delivered to",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
		CombatSwingsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "combat_swings_total",
			Help: "Number of combat swings resolved",
		}),
		ActiveSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of currently connected player sessions",
		}),
	}
}

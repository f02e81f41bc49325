package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BotMetrics holds all Prometheus metrics for the chatlog service.
type BotMetrics struct {
	CommandsTotal      *prometheus.CounterVec
	LinesTotal         *prometheus.CounterVec
	ResponseBytesTotal prometheus.Counter
	SpoolActive        prometheus.Gauge
}

// NewBotMetrics initializes and registers the Prometheus metrics.
func NewBotMetrics() *BotMetrics {
	return &BotMetrics{
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "commands",
			Name:      "handled_total",
			Help:      "Total number of handled chat commands by command and status.",
		}, []string{"command", "status"}), // status: ok, usage, no_store, bad_room, denied, error
		LinesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "chatlog",
			Name:      "lines_total",
			Help:      "Total number of recorded chat lines by status.",
		}, []string{"status"}), // status: buffered, dropped, error
		ResponseBytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "commands",
			Name:      "response_bytes_total",
			Help:      "Total size of command replies sent back to the host.",
		}),
		SpoolActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "scribe",
			Subsystem: "chatlog",
			Name:      "spool_active_gauge",
			Help:      "Indicates if the file spool is currently taking writes (1 for active).",
		}),
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for puzzle play.
// Tracks drops by outcome, completed puzzles and event handling durations.
type Metrics struct {
	Drops          *prometheus.CounterVec
	PuzzlesStarted prometheus.Counter
	PuzzlesSolved  prometheus.Counter
	ActiveSessions prometheus.Gauge
	EventDuration  *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered to registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Drops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mugshots_drops_total",
			Help: "Total number of released items by match result",
		}, []string{"result"}),
		PuzzlesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mugshots_puzzles_started_total",
			Help: "Total number of puzzle instances started",
		}),
		PuzzlesSolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "mugshots_puzzles_solved_total",
			Help: "Total number of transitions to the completed state",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mugshots_active_sessions",
			Help: "Number of puzzle instances held in memory",
		}),
		EventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mugshots_event_duration_seconds",
			Help:    "Duration of puzzle event handling including waiting for the session lock",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"event"}),
	}
}

// IncrementDrop records the result of a release.
func (m *Metrics) IncrementDrop(result string) {
	m.Drops.WithLabelValues(result).Inc()
}

// ObserveEvent records the duration of a puzzle event.
// Call with time.Now() at the start of the event.
func (m *Metrics) ObserveEvent(event string, start time.Time) {
	m.EventDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())
}

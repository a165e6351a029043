// Package metrics holds the Prometheus collectors for the bot and worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Action outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeDenied  = "denied"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics tracks menu actions and ledger mutations. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Actions         *prometheus.CounterVec
	HandleDuration  prometheus.Histogram
	FinesRecorded   prometheus.Counter
	PointsRecorded  prometheus.Counter
	FinesRemoved    prometheus.Counter
	EventsPublished *prometheus.CounterVec
	EventsExported  *prometheus.CounterVec
}

// New registers every collector with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fines_actions_total",
			Help: "Menu actions handled, by action kind and outcome",
		}, []string{"action", "outcome"}),
		HandleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fines_handle_duration_seconds",
			Help:    "Duration of a single menu interaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		FinesRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "fines_recorded_total",
			Help: "Fines appended to the ledger",
		}),
		PointsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "fines_points_recorded_total",
			Help: "Sum of points of recorded fines",
		}),
		FinesRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "fines_removed_total",
			Help: "Fines deleted from the ledger",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fines_events_published_total",
			Help: "Ledger events published to the broker, by result",
		}, []string{"result"}),
		EventsExported: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fines_events_exported_total",
			Help: "Ledger events written to the spreadsheet, by result",
		}, []string{"result"}),
	}
}

// ObserveAction records one handled interaction.
// Call with time.Now() at the start of the interaction.
func (m *Metrics) ObserveAction(action, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
	m.HandleDuration.Observe(time.Since(start).Seconds())
}

// IncrementFineRecorded records a ledger append of amount points.
func (m *Metrics) IncrementFineRecorded(amount int) {
	if m == nil {
		return
	}
	m.FinesRecorded.Inc()
	m.PointsRecorded.Add(float64(amount))
}

// IncrementFineRemoved records a ledger deletion.
func (m *Metrics) IncrementFineRemoved() {
	if m == nil {
		return
	}
	m.FinesRemoved.Inc()
}

// IncrementPublished records a broker publish attempt.
func (m *Metrics) IncrementPublished(ok bool) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(result(ok)).Inc()
}

// IncrementExported records a spreadsheet write attempt.
func (m *Metrics) IncrementExported(ok bool) {
	if m == nil {
		return
	}
	m.EventsExported.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

package coach

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/claude/repcycle/internal/models"
	"github.com/claude/repcycle/internal/periodization"
)

// Metrics counts engine decisions. A nil *Metrics records nothing.
type Metrics struct {
	weekAdvances *prometheus.CounterVec
	completions  prometheus.Counter
	deloads      *prometheus.CounterVec
	feedback     prometheus.Counter
	adjustments  *prometheus.CounterVec
}

// NewMetrics registers the engine counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		weekAdvances: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repcycle",
			Name:      "week_advances_total",
			Help:      "Mesocycle week advances by the phase entered.",
		}, []string{"phase"}),
		completions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "repcycle",
			Name:      "mesocycles_completed_total",
			Help:      "Mesocycles advanced past their last week.",
		}),
		deloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repcycle",
			Name:      "deloads_total",
			Help:      "Transitions into deload by trigger.",
		}, []string{"trigger"}),
		feedback: f.NewCounter(prometheus.CounterOpts{
			Namespace: "repcycle",
			Name:      "feedback_recorded_total",
			Help:      "Post-session feedback submissions applied.",
		}),
		adjustments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repcycle",
			Name:      "landmark_adjustments_total",
			Help:      "Auto-regulation volume changes by direction.",
		}, []string{"direction"}),
	}
}

func (m *Metrics) observeStep(step periodization.Step) {
	if m == nil {
		return
	}
	if step.Completed() {
		m.completions.Inc()
		return
	}
	m.weekAdvances.WithLabelValues(string(step.To.Phase)).Inc()
	if step.PhaseChanged() && step.To.Phase == models.PhaseDeload {
		m.deloads.WithLabelValues(string(step.Trigger)).Inc()
	}
}

func (m *Metrics) observeFeedback(adjustments []periodization.Adjustment) {
	if m == nil {
		return
	}
	m.feedback.Inc()
	for _, a := range adjustments {
		switch {
		case a.CurrentVolume > a.PreviousVolume:
			m.adjustments.WithLabelValues("up").Inc()
		case a.CurrentVolume < a.PreviousVolume:
			m.adjustments.WithLabelValues("down").Inc()
		default:
			m.adjustments.WithLabelValues("hold").Inc()
		}
	}
}

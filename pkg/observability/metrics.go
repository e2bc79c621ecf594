package observability

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/techninja/techninja/pkg/domain"
)

// Metrics holds the wizard collectors.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Results       *prometheus.CounterVec
	LookupMisses  prometheus.Counter
	GraphLoads    *prometheus.CounterVec
	GraphWarnings *prometheus.GaugeVec
	HistoryDepth  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techninja_transitions_total",
				Help: "Committed traversal transitions by kind",
			},
			[]string{"kind"},
		),
		Results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techninja_results_reached_total",
				Help: "Transitions that landed on a result step",
			},
			[]string{"machine"},
		),
		LookupMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "techninja_lookup_misses_total",
				Help: "Transitions aborted because a referenced step was missing",
			},
		),
		GraphLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techninja_graph_loads_total",
				Help: "Machine graph resolutions by outcome",
			},
			[]string{"machine", "outcome"},
		),
		GraphWarnings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "techninja_graph_warnings",
				Help: "Integrity warnings of the last resolved graph",
			},
			[]string{"machine"},
		),
		HistoryDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "techninja_result_depth_steps",
				Help:    "Number of steps taken before reaching a result",
				Buckets: prometheus.LinearBuckets(0, 2, 10),
			},
		),
	}
	reg.MustRegister(m.Transitions, m.Results, m.LookupMisses, m.GraphLoads, m.GraphWarnings, m.HistoryDepth)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.Kind)).Inc()
			if e.Terminal && e.Kind != domain.TransitionRestore {
				m.Results.WithLabelValues(e.To.MachineID).Inc()
				m.HistoryDepth.Observe(float64(len(e.To.History)))
			}
		},
		OnLookupMiss: func(ctx context.Context, e *domain.LookupMissError) {
			m.LookupMisses.Inc()
		},
		OnGraphLoaded: func(ctx context.Context, e *domain.GraphEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.GraphLoads.WithLabelValues(e.MachineID, outcome).Inc()
			if e.Err == nil {
				m.GraphWarnings.WithLabelValues(e.MachineID).Set(float64(len(e.Warnings)))
			}
		},
	}
}

// LogHooks returns hooks that write an audit trail of transitions to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Info("transition",
				"kind", e.Kind,
				"machine", e.To.MachineID,
				"symptom", e.To.SymptomID,
				"from_step", e.From.CurrentStepID,
				"to_step", e.To.CurrentStepID,
				"terminal", strconv.FormatBool(e.Terminal),
			)
		},
		OnGraphLoaded: func(ctx context.Context, e *domain.GraphEvent) {
			if e.Err != nil {
				logger.Error("graph_load_failed", "machine", e.MachineID, "err", e.Err)
				return
			}
			logger.Info("graph_loaded", "machine", e.MachineID, "warnings", len(e.Warnings))
		},
	}
}

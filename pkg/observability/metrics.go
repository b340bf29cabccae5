package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/pageflow/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	PageVisits *prometheus.CounterVec
	Entries    prometheus.Counter
	FlowErrors *prometheus.CounterVec
	// Sequences counts generation calls by source: "generated" or "cache".
	Sequences *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		PageVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageflow_page_visits_total",
				Help: "Total number of page visits by outcome",
			},
			[]string{"page", "outcome"},
		),
		Entries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pageflow_sequence_entries_total",
				Help: "Total number of sequence entries produced",
			},
		),
		FlowErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageflow_flow_errors_total",
				Help: "Total number of recorded flow errors by kind",
			},
			[]string{"kind"},
		),
		Sequences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pageflow_sequences_total",
				Help: "Total number of generated sequences by source",
			},
			[]string{"source"},
		),
	}
	for _, c := range []prometheus.Collector{m.PageVisits, m.Entries, m.FlowErrors, m.Sequences} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageRendered: func(_ context.Context, e *domain.PageEvent) {
			m.PageVisits.WithLabelValues(pageLabel(e), "rendered").Inc()
			m.Entries.Add(float64(e.Entries))
		},
		OnPageSkipped: func(_ context.Context, e *domain.PageEvent) {
			m.PageVisits.WithLabelValues(pageLabel(e), "skipped").Inc()
		},
		OnFlowError: func(_ context.Context, e *domain.ErrorEvent) {
			m.FlowErrors.WithLabelValues(string(e.Err.Kind)).Inc()
		},
		OnSequenceDone: func(_ context.Context, e *domain.SequenceEvent) {
			if e.Cached {
				m.Sequences.WithLabelValues("cache").Inc()
				return
			}
			m.Sequences.WithLabelValues("generated").Inc()
		},
	}
}

func pageLabel(e *domain.PageEvent) string {
	if e.PageName != "" {
		return e.PageName
	}
	return strconv.Itoa(e.PageIndex)
}

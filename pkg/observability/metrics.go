package observability

import (
	"context"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the inspector's collectors.
type Metrics struct {
	Loads       *prometheus.CounterVec
	Events      *prometheus.CounterVec
	Guards      *prometheus.CounterVec
	Assignments *prometheus.CounterVec
	Active      prometheus.Gauge
	Entered     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizvis_definition_loads_total",
			Help: "Definition initializations by result.",
		}, []string{"result"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizvis_events_total",
			Help: "Events fired by name and result.",
		}, []string{"event", "result"}),
		Guards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizvis_guard_evaluations_total",
			Help: "Guard evaluations by outcome (true, false, error).",
		}, []string{"outcome"}),
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizvis_data_assignments_total",
			Help: "Data model assignments by result.",
		}, []string{"result"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wizvis_active_states",
			Help: "Number of states in the current active view.",
		}),
		Entered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizvis_state_entries_total",
			Help: "Times each state entered the active view.",
		}, []string{"state_id"}),
	}

	for _, c := range []prometheus.Collector{m.Loads, m.Events, m.Guards, m.Assignments, m.Active, m.Entered} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoaded: func(_ context.Context, e *domain.LoadEvent) {
			m.Loads.WithLabelValues(result(e.Err)).Inc()
		},
		OnFire: func(_ context.Context, e *domain.FireEvent) {
			m.Events.WithLabelValues(e.Event, result(e.Err)).Inc()
		},
		OnGuard: func(_ context.Context, e *domain.GuardEvent) {
			outcome := "false"
			switch {
			case e.Err != nil:
				outcome = "error"
			case e.Result:
				outcome = "true"
			}
			m.Guards.WithLabelValues(outcome).Inc()
		},
		OnAssign: func(_ context.Context, e *domain.AssignEvent) {
			m.Assignments.WithLabelValues(result(e.Err)).Inc()
		},
		OnPublish: func(_ context.Context, n domain.Notification) {
			m.Active.Set(float64(len(n.Active)))
			entered := n.Entered
			if n.Kind == domain.NotifyLoaded {
				entered = n.Active
			}
			for _, id := range entered {
				m.Entered.WithLabelValues(id).Inc()
			}
		},
	}
}

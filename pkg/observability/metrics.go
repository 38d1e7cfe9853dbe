package observability

import (
	"sync"
	"time"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pvm"

// Metrics collects Prometheus metrics from runtime hooks.
type Metrics struct {
	ActivityStarts   *prometheus.CounterVec
	ActivityEnds     *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	AsyncScheduled   *prometheus.CounterVec
	ProcessEnds      *prometheus.CounterVec
	ActivityDuration *prometheus.HistogramVec

	now     func() time.Time
	mu      sync.Mutex
	started map[visit]time.Time
}

type visit struct {
	execution string
	activity  *domain.Activity
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActivityStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_starts_total",
			Help:      "Total number of activities entered.",
		}, []string{"process", "activity"}),
		ActivityEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_ends_total",
			Help:      "Total number of activities left.",
		}, []string{"process", "activity"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Total number of transitions taken.",
		}, []string{"process", "source", "destination"}),
		AsyncScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "async_scheduled_total",
			Help:      "Total number of executions parked on async activities.",
		}, []string{"process", "activity"}),
		ProcessEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_ends_total",
			Help:      "Total number of process instances ended.",
		}, []string{"process", "outcome"}),
		ActivityDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "activity_duration_seconds",
			Help:      "Time spent between entering and leaving an activity.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"process", "activity"}),
		now:     time.Now,
		started: make(map[visit]time.Time),
	}
	reg.MustRegister(m.ActivityStarts, m.ActivityEnds, m.Transitions,
		m.AsyncScheduled, m.ProcessEnds, m.ActivityDuration)
	return m
}

// Hooks returns the runtime hooks feeding m.
func (m *Metrics) Hooks() runtime.Hooks {
	return runtime.Hooks{
		OnActivityStart: func(e *runtime.Execution, a *domain.Activity) {
			m.ActivityStarts.WithLabelValues(e.ProcessDefinition().ID(), activityPath(a)).Inc()
			m.mu.Lock()
			m.started[visit{e.ID(), a}] = m.now()
			m.mu.Unlock()
		},
		OnActivityEnd: func(e *runtime.Execution, a *domain.Activity) {
			process, path := e.ProcessDefinition().ID(), activityPath(a)
			m.ActivityEnds.WithLabelValues(process, path).Inc()

			key := visit{e.ID(), a}
			m.mu.Lock()
			start, ok := m.started[key]
			delete(m.started, key)
			m.mu.Unlock()
			if ok {
				m.ActivityDuration.WithLabelValues(process, path).Observe(m.now().Sub(start).Seconds())
			}
		},
		OnTransitionTake: func(e *runtime.Execution, t *domain.Transition) {
			dest := ""
			if t.Destination() != nil {
				dest = activityPath(t.Destination())
			}
			m.Transitions.WithLabelValues(e.ProcessDefinition().ID(), activityPath(t.Source()), dest).Inc()
		},
		OnAsyncScheduled: func(e *runtime.Execution, a *domain.Activity) {
			m.AsyncScheduled.WithLabelValues(e.ProcessDefinition().ID(), activityPath(a)).Inc()
		},
		OnProcessEnd: func(e *runtime.Execution) {
			outcome := "completed"
			if e.DeleteReason() != "" {
				outcome = "deleted"
			}
			m.ProcessEnds.WithLabelValues(e.ProcessDefinition().ID(), outcome).Inc()
		},
	}
}

package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/pvm/internal/logging"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/ports"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/google/uuid"
)

// ErrAmbiguousExecution is returned by Signal when no activity is given and
// the instance waits in more than one activity.
var ErrAmbiguousExecution = errors.New("instance waits in several activities")

// Status is the externally visible state of a process instance.
type Status struct {
	ID               string         `json:"id"`
	DefinitionID     string         `json:"definition_id"`
	Ended            bool           `json:"ended"`
	DeleteReason     string         `json:"delete_reason,omitempty"`
	ActiveActivities []string       `json:"active_activities"`
	PendingJobs      int            `json:"pending_jobs"`
	Variables        map[string]any `json:"variables,omitempty"`
}

// Manager starts and drives process instances, persisting them between calls.
type Manager struct {
	definitions ports.DefinitionRepository
	store       ports.InstanceStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	hooks   runtime.Hooks

	jobs chan Job
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking with the given lock TTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks installs runtime hooks on every instance the Manager drives.
func WithHooks(h runtime.Hooks) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithAsyncJobs parks async activities as jobs instead of running them
// inline. buffer is the capacity of the job queue consumed by Work.
func WithAsyncJobs(buffer int) Option {
	return func(m *Manager) {
		m.jobs = make(chan Job, max(buffer, 1))
	}
}

// NewManager creates a Manager.
func NewManager(definitions ports.DefinitionRepository, store ports.InstanceStore, opts ...Option) *Manager {
	m := &Manager{
		definitions: definitions,
		store:       store,
		locks:       make(map[string]*lockEntry),
		lockTTL:     30 * time.Second,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates an instance of the definition with the initial variables and
// runs it until it waits or ends.
func (m *Manager) Start(ctx context.Context, definitionID string, vars map[string]any) (*Status, error) {
	def, err := m.definitions.Definition(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	var status *Status
	var jobs []Job
	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		pi, err := runtime.NewProcessInstance(def, m.runtimeOptions(id, &jobs)...)
		if err != nil {
			return err
		}
		pi.SetVariables(vars)
		if err := pi.Start(); err != nil {
			return fmt.Errorf("start instance of %q: %w", definitionID, err)
		}
		if status, err = m.save(ctx, pi); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("Instance started", "instance_id", id, "definition_id", definitionID)
	m.enqueue(ctx, jobs)
	return status, nil
}

// Signal delivers a signal to the execution waiting in activityID. With an
// empty activityID the single waiting execution is signalled.
func (m *Manager) Signal(ctx context.Context, instanceID, activityID, signalName string, data any) (*Status, error) {
	var status *Status
	var jobs []Job
	err := m.WithLock(ctx, instanceID, func(ctx context.Context) error {
		pi, err := m.restore(ctx, instanceID, &jobs)
		if err != nil {
			return err
		}
		target, err := waitingExecution(pi, activityID)
		if err != nil {
			return err
		}
		if err := target.Signal(signalName, data); err != nil {
			return err
		}
		status, err = m.save(ctx, pi)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.enqueue(ctx, jobs)
	return status, nil
}

// SetVariables writes variables on the process instance.
func (m *Manager) SetVariables(ctx context.Context, instanceID string, vars map[string]any) (*Status, error) {
	var status *Status
	err := m.WithLock(ctx, instanceID, func(ctx context.Context) error {
		pi, err := m.restore(ctx, instanceID, nil)
		if err != nil {
			return err
		}
		pi.SetVariables(vars)
		status, err = m.save(ctx, pi)
		return err
	})
	return status, err
}

// Status returns the state of an instance.
func (m *Manager) Status(ctx context.Context, instanceID string) (*Status, error) {
	var status *Status
	err := m.WithLock(ctx, instanceID, func(ctx context.Context) error {
		pi, err := m.restore(ctx, instanceID, nil)
		if err != nil {
			return err
		}
		status = statusOf(pi)
		return nil
	})
	return status, err
}

// Cancel deletes the execution tree of a running instance, firing end
// listeners, and keeps the ended instance in the store.
func (m *Manager) Cancel(ctx context.Context, instanceID, reason string) (*Status, error) {
	var status *Status
	err := m.WithLock(ctx, instanceID, func(ctx context.Context) error {
		pi, err := m.restore(ctx, instanceID, nil)
		if err != nil {
			return err
		}
		if err := pi.DeleteCascade(reason); err != nil {
			return err
		}
		status, err = m.save(ctx, pi)
		return err
	})
	if err == nil {
		m.logger.Info("Instance cancelled", "instance_id", instanceID, "reason", reason)
	}
	return status, err
}

// Delete removes the instance from the store.
func (m *Manager) Delete(ctx context.Context, instanceID string) error {
	return m.WithLock(ctx, instanceID, func(ctx context.Context) error {
		return m.store.Delete(ctx, instanceID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying instance store.
func (m *Manager) Store() ports.InstanceStore {
	return m.store
}

// Definitions returns the definition repository.
func (m *Manager) Definitions() ports.DefinitionRepository {
	return m.definitions
}

func (m *Manager) runtimeOptions(instanceID string, jobs *[]Job) []runtime.Option {
	opts := []runtime.Option{runtime.WithID(instanceID), runtime.WithHooks(m.hooks)}
	if m.jobs != nil && jobs != nil {
		opts = append(opts, runtime.WithAsyncScheduler(runtime.AsyncSchedulerFunc(func(e *runtime.Execution) {
			*jobs = append(*jobs, Job{InstanceID: instanceID, ExecutionID: e.ID(), ActivityID: e.Activity().ID()})
		})))
	}
	return opts
}

func (m *Manager) restore(ctx context.Context, instanceID string, jobs *[]Job) (*runtime.Execution, error) {
	snap, err := m.store.Load(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	def, err := m.definitions.Definition(ctx, snap.DefinitionID)
	if err != nil {
		return nil, err
	}
	opts := append(m.runtimeOptions(instanceID, jobs), runtime.WithDefinitionResolver(func(id string) (*domain.ProcessDefinition, error) {
		return m.definitions.Definition(ctx, id)
	}))
	return runtime.Restore(def, snap, opts...)
}

func (m *Manager) save(ctx context.Context, pi *runtime.Execution) (*Status, error) {
	snap, err := pi.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, pi.ID(), snap); err != nil {
		return nil, fmt.Errorf("failed to save instance %s: %w", pi.ID(), err)
	}
	return statusOf(pi), nil
}

func statusOf(pi *runtime.Execution) *Status {
	return &Status{
		ID:               pi.ID(),
		DefinitionID:     pi.ProcessDefinition().ID(),
		Ended:            pi.IsEnded(),
		DeleteReason:     pi.DeleteReason(),
		ActiveActivities: pi.FindActiveActivityIDs(),
		PendingJobs:      len(pendingAsync(pi)),
		Variables:        pi.VariablesLocal(),
	}
}

// waitingExecution picks the execution a signal is meant for.
func waitingExecution(pi *runtime.Execution, activityID string) (*runtime.Execution, error) {
	if pi.IsEnded() {
		return nil, fmt.Errorf("signal %s: %w", pi, domain.ErrExecutionEnded)
	}
	if activityID != "" {
		e := pi.FindExecution(activityID)
		if e == nil || !e.IsActive() {
			return nil, fmt.Errorf("signal %s: no execution waits in %q: %w", pi, activityID, domain.ErrNoActiveActivity)
		}
		return e, nil
	}
	active := pi.FindActiveActivityIDs()
	switch len(active) {
	case 0:
		return nil, fmt.Errorf("signal %s: %w", pi, domain.ErrNoActiveActivity)
	case 1:
		return pi.FindExecution(active[0]), nil
	}
	return nil, fmt.Errorf("signal %s: %w: %v", pi, ErrAmbiguousExecution, active)
}

// pendingAsync lists the executions of the tree parked on async activities.
func pendingAsync(e *runtime.Execution) []*runtime.Execution {
	var out []*runtime.Execution
	if e.IsAsyncPending() && !e.IsEnded() {
		out = append(out, e)
	}
	for _, c := range e.ChildExecutions() {
		out = slices.Concat(out, pendingAsync(c))
	}
	if sub := e.SubProcessInstance(); sub != nil {
		out = slices.Concat(out, pendingAsync(sub))
	}
	return out
}

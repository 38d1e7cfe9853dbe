package runtime

import (
	"errors"
	"fmt"
	"maps"

	"github.com/aretw0/pvm/pkg/domain"
)

// ErrExecutionBusy is returned when a snapshot is requested while the tree
// is in the middle of an operation.
var ErrExecutionBusy = errors.New("execution is running an operation")

// Snapshot is the serializable state of an execution tree at rest.
// Activities are stored as paths so nested activities sharing an id stay
// distinguishable.
type Snapshot struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id,omitempty"`
	Activity      []string       `json:"activity,omitempty"`
	ScopeActivity []string       `json:"scope_activity,omitempty"`
	Active        bool           `json:"active"`
	Concurrent    bool           `json:"concurrent,omitempty"`
	Scope         bool           `json:"scope"`
	Ended         bool           `json:"ended,omitempty"`
	Forked        bool           `json:"forked,omitempty"`
	Started       bool           `json:"started,omitempty"`
	AsyncPending  bool           `json:"async_pending,omitempty"`
	DeleteReason  string         `json:"delete_reason,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Executions    []Snapshot     `json:"executions,omitempty"`
	// SubProcessInstance is the running sub process instance started by
	// this execution. It carries its own DefinitionID.
	SubProcessInstance *Snapshot `json:"sub_process_instance,omitempty"`
}

// Snapshot captures e and its descendants.
func (e *Execution) Snapshot() (*Snapshot, error) {
	if e.busy() {
		return nil, fmt.Errorf("snapshot %s: %w", e, ErrExecutionBusy)
	}
	s := e.snapshot()
	if e.IsProcessInstance() {
		s.DefinitionID = e.definition.ID()
	}
	return &s, nil
}

func (e *Execution) busy() bool {
	if e.operating || e.transition != nil {
		return true
	}
	if e.subProcessInstance != nil && e.subProcessInstance.busy() {
		return true
	}
	for _, c := range e.executions {
		if c.busy() {
			return true
		}
	}
	return false
}

func (e *Execution) snapshot() Snapshot {
	s := Snapshot{
		ID:           e.id,
		Active:       e.active,
		Concurrent:   e.concurrent,
		Scope:        e.scope,
		Ended:        e.ended,
		Forked:       e.forked,
		Started:      e.started,
		AsyncPending: e.asyncPending,
		DeleteReason: e.deleteReason,
	}
	if e.activity != nil {
		s.Activity = e.activity.Path()
	}
	if e.scopeActivity != nil {
		s.ScopeActivity = e.scopeActivity.Path()
	}
	if len(e.variables) > 0 {
		s.Variables = maps.Clone(e.variables)
	}
	for _, c := range e.executions {
		s.Executions = append(s.Executions, c.snapshot())
	}
	if sub := e.subProcessInstance; sub != nil {
		subSnap := sub.snapshot()
		subSnap.DefinitionID = sub.definition.ID()
		s.SubProcessInstance = &subSnap
	}
	return s
}

// Restore rebuilds a process instance from a snapshot taken on def. Sub
// process instances of other definitions need WithDefinitionResolver.
func Restore(def *domain.ProcessDefinition, snap *Snapshot, opts ...Option) (*Execution, error) {
	if def == nil || snap == nil {
		return nil, fmt.Errorf("restore: nil definition or snapshot")
	}
	if snap.DefinitionID != "" && snap.DefinitionID != def.ID() {
		return nil, fmt.Errorf("restore %s: snapshot belongs to process %q, not %q", snap.ID, snap.DefinitionID, def.ID())
	}
	cfg := &config{id: snap.ID}
	for _, opt := range opts {
		opt(cfg)
	}
	root, err := restore(def, snap, cfg, nil, nil)
	if err != nil {
		return nil, err
	}
	return root, nil
}

func restore(def *domain.ProcessDefinition, snap *Snapshot, cfg *config, instance, parent *Execution) (*Execution, error) {
	e := newExecution(snap.ID, def, cfg)
	e.parent = parent
	e.instance = instance
	if instance == nil {
		e.instance = e
	}
	e.active = snap.Active
	e.concurrent = snap.Concurrent
	e.scope = snap.Scope
	e.ended = snap.Ended
	e.forked = snap.Forked
	e.started = snap.Started
	e.asyncPending = snap.AsyncPending
	e.deleteReason = snap.DeleteReason
	maps.Copy(e.variables, snap.Variables)

	var err error
	if e.activity, err = resolvePath(def, snap.Activity); err != nil {
		return nil, err
	}
	if e.scopeActivity, err = resolvePath(def, snap.ScopeActivity); err != nil {
		return nil, err
	}
	for i := range snap.Executions {
		child, err := restore(def, &snap.Executions[i], cfg, e.instance, e)
		if err != nil {
			return nil, err
		}
		e.executions = append(e.executions, child)
	}
	if snap.SubProcessInstance != nil {
		subDef, err := cfg.resolveDefinition(def, snap.SubProcessInstance.DefinitionID)
		if err != nil {
			return nil, err
		}
		sub, err := restore(subDef, snap.SubProcessInstance, cfg, nil, nil)
		if err != nil {
			return nil, err
		}
		sub.superExecution = e
		e.subProcessInstance = sub
	}
	return e, nil
}

func resolvePath(def *domain.ProcessDefinition, path []string) (*domain.Activity, error) {
	if len(path) == 0 {
		return nil, nil
	}
	a := def.ActivityByPath(path)
	if a == nil {
		return nil, fmt.Errorf("restore: activity %v not found in process %q", path, def.ID())
	}
	return a, nil
}

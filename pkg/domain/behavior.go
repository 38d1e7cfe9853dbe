package domain

// ActivityBehavior is invoked when an execution arrives in an activity. It
// either leaves the execution waiting or moves it on, e.g. by taking an
// outgoing transition.
type ActivityBehavior interface {
	Execute(execution ActivityExecution) error
}

// BehaviorFunc adapts a plain function to ActivityBehavior.
type BehaviorFunc func(execution ActivityExecution) error

// Execute calls f(execution).
func (f BehaviorFunc) Execute(execution ActivityExecution) error {
	return f(execution)
}

// SignallableActivityBehavior is a behavior that parks executions until an
// external signal arrives. The signal name and data are opaque to the engine.
type SignallableActivityBehavior interface {
	ActivityBehavior
	Signal(execution ActivityExecution, signalName string, signalData any) error
}

// CompositeActivityBehavior is notified when the last execution inside the
// activity's nested activities has ended. The execution passed in is
// positioned on the composite activity.
type CompositeActivityBehavior interface {
	ActivityBehavior
	LastExecutionEnded(execution ActivityExecution) error
}

// SubProcessActivityBehavior is notified when the sub process instance an
// activity started has ended. Completing runs while the sub instance is still
// attached, typically to copy variables out of it; Completed runs after it
// was detached and usually moves the execution on.
type SubProcessActivityBehavior interface {
	ActivityBehavior
	Completing(execution ActivityExecution, subProcessInstance ActivityExecution) error
	Completed(execution ActivityExecution) error
}

// ProcessInstance is a root execution that has not been started yet, as
// returned by CreateSubProcessInstance.
type ProcessInstance interface {
	ActivityExecution
	Start() error
}

// VariableScope is the variable view of an execution. Lookups fall back to
// the parent chain; writes always target the local store.
type VariableScope interface {
	HasVariable(name string) bool
	Variable(name string) (any, bool)
	SetVariable(name string, value any)
	SetVariables(vars map[string]any)
	Variables() map[string]any
	HasVariableLocal(name string) bool
	VariablesLocal() map[string]any
	RemoveVariableLocal(name string)
}

// ActivityExecution is the view of a running execution handed to behaviors
// and listeners.
type ActivityExecution interface {
	VariableScope

	ID() string
	Activity() *Activity
	ProcessDefinition() *ProcessDefinition

	// Parent returns nil for the process instance.
	Parent() ActivityExecution
	Executions() []ActivityExecution
	ProcessInstance() ActivityExecution
	IsProcessInstance() bool

	IsActive() bool
	SetActive(active bool)
	Inactivate()
	IsConcurrent() bool
	SetConcurrent(concurrent bool)
	IsScope() bool
	IsEnded() bool

	CreateExecution() ActivityExecution
	// CreateSubProcessInstance creates an unstarted instance of def whose end
	// is reported back to this execution's activity behavior.
	CreateSubProcessInstance(def *ProcessDefinition) (ProcessInstance, error)
	Take(transition *Transition) error
	TakeAll(transitions []*Transition, recyclable []ActivityExecution) error
	ExecuteActivity(activity *Activity) error
	End() error
	FindInactiveConcurrentExecutions(activity *Activity) ([]ActivityExecution, error)
}

package domain

import "errors"

// Builder usage errors. They report a call made in the wrong construction state.
var (
	// ErrEmptyStack is returned when EndActivity is called with only the definition left on the stack.
	ErrEmptyStack = errors.New("builder stack is empty")
	// ErrNoActivity is returned when an operation needs an activity on top of the stack.
	ErrNoActivity = errors.New("no activity is being built")
	// ErrTransitionOpen is returned when a scope-only operation is used while a transition is current.
	ErrTransitionOpen = errors.New("a transition is current")
	// ErrNoTransition is returned when a transition-only operation is used without a current transition.
	ErrNoTransition = errors.New("no transition is current")
	// ErrInvalidID is returned for empty activity or destination identifiers.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrDuplicateActivity is returned when an activity id is reused within the same scope.
	ErrDuplicateActivity = errors.New("duplicate activity id in scope")
	// ErrBuilderFinished is returned when a builder is used after Build.
	ErrBuilderFinished = errors.New("builder already built its definition")
)

// ErrDestinationNotFound is returned by Build when a transition names an activity that does not exist.
var ErrDestinationNotFound = errors.New("destination activity not found")

// Runtime state errors.
var (
	// ErrNoInitialActivity is returned when a process instance is created for a definition without an initial activity.
	ErrNoInitialActivity = errors.New("process definition has no initial activity")
	// ErrExecutionEnded is returned when an ended execution is signaled or asked to move.
	ErrExecutionEnded = errors.New("execution has ended")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("process instance already started")
	// ErrNotProcessInstance is returned when a process instance operation is called on a child execution.
	ErrNotProcessInstance = errors.New("execution is not a process instance")
	// ErrAlreadyTaking is returned when a transition is taken while another one is in progress.
	ErrAlreadyTaking = errors.New("already taking a transition")
	// ErrNilTransition is returned when Take receives a nil transition.
	ErrNilTransition = errors.New("transition is nil")
	// ErrForeignTransition is returned when a transition does not leave the current activity.
	ErrForeignTransition = errors.New("transition does not leave the current activity")
	// ErrNotSignallable is returned when the current activity cannot receive signals.
	ErrNotSignallable = errors.New("activity behavior does not accept signals")
	// ErrNoActiveActivity is returned when an operation needs a current activity.
	ErrNoActiveActivity = errors.New("execution has no current activity")
	// ErrNotAsync is returned by ContinueAsync when nothing is parked.
	ErrNotAsync = errors.New("execution is not waiting on an async continuation")
	// ErrJoinScope is returned when more than one scope execution would be joined.
	ErrJoinScope = errors.New("joining scope executions is not allowed")
	// ErrAmbiguousPassThrough is returned when an activity without behavior has more than one outgoing transition.
	ErrAmbiguousPassThrough = errors.New("activity without behavior has several outgoing transitions")
	// ErrSubProcessRunning is returned when an execution already waits for a sub process instance.
	ErrSubProcessRunning = errors.New("execution already has a sub process instance")
	// ErrConcurrentScopeExit is returned when a concurrent branch leaves a scope its siblings still occupy.
	ErrConcurrentScopeExit = errors.New("concurrent execution cannot leave a scope with active siblings")
)

// ErrInstanceNotFound is returned by instance stores when an instance id is unknown.
var ErrInstanceNotFound = errors.New("process instance not found")

// ErrDefinitionNotFound is returned by definition repositories when an id is unknown.
var ErrDefinitionNotFound = errors.New("process definition not found")

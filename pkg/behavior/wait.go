package behavior

import (
	"fmt"

	"github.com/aretw0/pvm/pkg/domain"
)

// WaitState parks the execution until it is signalled. The signal name
// selects the outgoing transition by id; an unknown or empty name falls back
// to the first outgoing transition. Map signal data is merged into the
// execution variables before leaving.
type WaitState struct{}

// Execute does nothing: the execution waits.
func (WaitState) Execute(domain.ActivityExecution) error {
	return nil
}

// Signal leaves the activity.
func (WaitState) Signal(e domain.ActivityExecution, signalName string, signalData any) error {
	if vars, ok := signalData.(map[string]any); ok {
		e.SetVariables(vars)
	}
	a := e.Activity()
	if t := a.FindOutgoingTransition(signalName); signalName != "" && t != nil {
		return e.Take(t)
	}
	out := a.Outgoing()
	if len(out) == 0 {
		return e.End()
	}
	return e.Take(out[0])
}

// Automatic takes the first outgoing transition right away. Without outgoing
// transitions the execution ends.
type Automatic struct{}

// Execute takes the first outgoing transition.
func (Automatic) Execute(e domain.ActivityExecution) error {
	out := e.Activity().Outgoing()
	if len(out) == 0 {
		return e.End()
	}
	return e.Take(out[0])
}

// End terminates the execution, ignoring outgoing transitions.
type End struct{}

// Execute ends the execution.
func (End) Execute(e domain.ActivityExecution) error {
	return e.End()
}

// Fail is a behavior that always returns Err. It is handy to model error
// paths in tests and documents.
type Fail struct {
	Err error
}

// Execute returns the configured error.
func (f Fail) Execute(e domain.ActivityExecution) error {
	if f.Err == nil {
		return fmt.Errorf("activity %q failed", e.Activity().ID())
	}
	return f.Err
}

var (
	_ domain.SignallableActivityBehavior = WaitState{}
	_ domain.ActivityBehavior            = Automatic{}
	_ domain.ActivityBehavior            = End{}
	_ domain.ActivityBehavior            = Fail{}
)

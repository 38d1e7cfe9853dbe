package behavior

import (
	"fmt"

	"github.com/aretw0/pvm/pkg/domain"
)

// InitialProperty names the nested activity an EmbeddedSubProcess starts in.
const InitialProperty = "initial"

// EmbeddedSubProcess runs the activities nested in its activity. It starts
// in the activity named by the InitialProperty, or else the first nested
// activity without incoming transitions. When the nested flow ends the first
// outgoing transition is taken.
type EmbeddedSubProcess struct{}

// Execute enters the nested initial activity.
func (EmbeddedSubProcess) Execute(e domain.ActivityExecution) error {
	a := e.Activity()
	initial, err := nestedInitial(a)
	if err != nil {
		return err
	}
	return e.ExecuteActivity(initial)
}

// LastExecutionEnded leaves the sub process.
func (EmbeddedSubProcess) LastExecutionEnded(e domain.ActivityExecution) error {
	out := e.Activity().Outgoing()
	if len(out) == 0 {
		return e.End()
	}
	return e.Take(out[0])
}

func nestedInitial(a *domain.Activity) (*domain.Activity, error) {
	if v, ok := a.Property(InitialProperty); ok {
		id, _ := v.(string)
		if nested, found := a.Activity(id); found {
			return nested, nil
		}
		return nil, fmt.Errorf("sub process %q: initial activity %q not found", a.ID(), id)
	}
	nested := a.Activities()
	for _, n := range nested {
		if len(n.Incoming()) == 0 {
			return n, nil
		}
	}
	if len(nested) > 0 {
		return nested[0], nil
	}
	return nil, fmt.Errorf("sub process %q: %w", a.ID(), domain.ErrNoInitialActivity)
}

// CallActivity runs Definition as a sub process instance and waits for it
// to end, then takes the first outgoing transition or ends. Variables named
// in In are copied into the sub instance before it starts; those named in
// Out are copied back when it completes.
type CallActivity struct {
	Definition *domain.ProcessDefinition
	In         []string
	Out        []string
}

// Execute starts the sub process instance.
func (c CallActivity) Execute(e domain.ActivityExecution) error {
	if c.Definition == nil {
		return fmt.Errorf("call activity %q: no process definition", e.Activity().ID())
	}
	sub, err := e.CreateSubProcessInstance(c.Definition)
	if err != nil {
		return err
	}
	for _, name := range c.In {
		if v, ok := e.Variable(name); ok {
			sub.SetVariable(name, v)
		}
	}
	return sub.Start()
}

// Completing copies the Out variables from the ended sub instance.
func (c CallActivity) Completing(e domain.ActivityExecution, sub domain.ActivityExecution) error {
	for _, name := range c.Out {
		if v, ok := sub.Variable(name); ok {
			e.SetVariable(name, v)
		}
	}
	return nil
}

// Completed leaves the call activity.
func (CallActivity) Completed(e domain.ActivityExecution) error {
	out := e.Activity().Outgoing()
	if len(out) == 0 {
		return e.End()
	}
	return e.Take(out[0])
}

var (
	_ domain.CompositeActivityBehavior  = EmbeddedSubProcess{}
	_ domain.SubProcessActivityBehavior = CallActivity{}
)

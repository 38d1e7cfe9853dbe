package behavior

import (
	"errors"
	"fmt"

	"github.com/aretw0/pvm/pkg/domain"
)

// ConditionProperty is the transition property read by ExclusiveGateway. Its
// value names a variable; the transition is eligible when that variable is
// truthy.
const ConditionProperty = "condition"

// ErrNoEligibleTransition is returned when no outgoing transition of an
// exclusive gateway matches.
var ErrNoEligibleTransition = errors.New("no eligible outgoing transition")

// ExclusiveGateway takes the first outgoing transition whose condition
// variable is truthy. Transitions without a condition act as the default
// branch and are used when no condition matches.
type ExclusiveGateway struct{}

// Execute selects and takes one transition.
func (ExclusiveGateway) Execute(e domain.ActivityExecution) error {
	a := e.Activity()
	var fallback *domain.Transition
	for _, t := range a.Outgoing() {
		cond, ok := t.Property(ConditionProperty)
		if !ok {
			if fallback == nil {
				fallback = t
			}
			continue
		}
		name, _ := cond.(string)
		if v, found := e.Variable(name); found && truthy(v) {
			return e.Take(t)
		}
	}
	if fallback != nil {
		return e.Take(fallback)
	}
	return fmt.Errorf("exclusive gateway %q: %w", a.ID(), ErrNoEligibleTransition)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "false" && x != "0"
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// ParallelGateway forks over all outgoing transitions and joins incoming
// concurrent branches. Arriving branches wait until one branch per incoming
// transition is present, then the joined executions are recycled for the
// outgoing ones. A join without outgoing transitions ends the flow.
type ParallelGateway struct{}

// Execute joins and forks.
func (ParallelGateway) Execute(e domain.ActivityExecution) error {
	a := e.Activity()
	e.Inactivate()
	joined, err := e.FindInactiveConcurrentExecutions(a)
	if err != nil {
		return err
	}
	if len(joined) < max(1, len(a.Incoming())) {
		return nil
	}
	return e.TakeAll(a.Outgoing(), joined)
}

var (
	_ domain.ActivityBehavior = ExclusiveGateway{}
	_ domain.ActivityBehavior = ParallelGateway{}
)

package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/pvm/pkg/domain"
)

// TakeAll leaves the current activity over every transition at once.
//
// recyclable lists executions that may be reused for the outgoing branches,
// typically the branches just joined in the current activity. When a single
// transition is taken and no other branch is still active, the concurrent
// root continues alone and the recyclable executions are pruned. Otherwise one
// concurrent child per transition is launched, reusing recyclable executions
// first. Without transitions the joined flow ends in the current activity.
func (e *Execution) TakeAll(transitions []*domain.Transition, recyclable []domain.ActivityExecution) error {
	if e.ended {
		return fmt.Errorf("take all on %s: %w", e, domain.ErrExecutionEnded)
	}
	for _, t := range transitions {
		if t == nil {
			return fmt.Errorf("take all on %s: %w", e, domain.ErrNilTransition)
		}
		if t.Source() != e.activity {
			return fmt.Errorf("take all %s on %s: %w", t, e, domain.ErrForeignTransition)
		}
	}

	recycled := make([]*Execution, 0, len(recyclable))
	for _, r := range recyclable {
		x, ok := r.(*Execution)
		if !ok || x.instance != e.instance {
			return fmt.Errorf("take all on %s: recyclable %v is not part of this process instance", e, r)
		}
		recycled = append(recycled, x)
	}
	if len(recycled) > 1 {
		for _, x := range recycled {
			if x.scope {
				return fmt.Errorf("take all on %s: %w", e, domain.ErrJoinScope)
			}
		}
	}

	root := e
	if e.concurrent && !e.scope {
		root = e.parent
	}
	activity := e.activity

	if len(transitions) == 0 {
		return root.endJoined(activity, recycled)
	}

	if len(transitions) == 1 && !root.hasActiveChild() {
		for _, x := range recycled {
			if x != root && !x.ended {
				x.remove()
				x.markEnded()
			}
		}
		root.activity = activity
		root.active = true
		root.concurrent = false
		root.forked = false
		root.ending = false
		return root.Take(transitions[0])
	}

	recycled = slices.DeleteFunc(recycled, func(x *Execution) bool { return x == root })
	branches := make([]*Execution, 0, len(transitions))
	for range transitions {
		var branch *Execution
		if len(recycled) == 0 {
			branch = root.createExecution()
		} else {
			branch, recycled = recycled[0], recycled[1:]
		}
		branch.activity = activity
		branch.active = true
		branch.ending = false
		branch.scope = false
		branch.concurrent = true
		branches = append(branches, branch)
	}
	for _, x := range recycled {
		if !x.ended {
			x.remove()
			x.markEnded()
		}
	}
	root.active = false
	root.forked = true
	root.activity = activity

	for i, branch := range branches {
		if branch.ended {
			continue
		}
		if err := branch.Take(transitions[i]); err != nil {
			return err
		}
	}
	return nil
}

// endJoined finishes a join without outgoing transitions: the joined
// branches are pruned and the concurrent root ends in the activity once no
// other branch is left.
func (e *Execution) endJoined(activity *domain.Activity, joined []*Execution) error {
	for _, x := range joined {
		if x != e && !x.ended {
			x.remove()
			x.markEnded()
		}
	}
	if len(e.liveChildren()) > 0 {
		return nil
	}
	e.activity = activity
	e.concurrent = e.concurrent && e.scope
	e.forked = false
	e.ending = false
	e.active = true
	return e.End()
}

func (e *Execution) hasActiveChild() bool {
	for _, c := range e.executions {
		if c.active && !c.ended {
			return true
		}
	}
	return false
}

// FindInactiveConcurrentExecutions returns the branches waiting in the
// activity. For a concurrent execution these are its inactive siblings
// (itself included) positioned there; for any other execution it is the
// execution itself when inactive. An active sibling in the activity is an
// inconsistent tree and reported as an error.
func (e *Execution) FindInactiveConcurrentExecutions(a *domain.Activity) ([]domain.ActivityExecution, error) {
	var inactive []domain.ActivityExecution
	if e.concurrent && e.parent != nil {
		for _, sibling := range e.parent.executions {
			if sibling.ended || sibling.activity != a {
				continue
			}
			if sibling.active {
				return nil, fmt.Errorf("join in %q: unexpected active %s", a.ID(), sibling)
			}
			inactive = append(inactive, sibling)
		}
		return inactive, nil
	}
	if !e.active {
		inactive = append(inactive, e)
	}
	return inactive, nil
}

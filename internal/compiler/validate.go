package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
)

// Severity of a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Activity string   `json:"activity,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Activity == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Activity, i.Message)
}

// Issues is the result of Validate.
type Issues []Issue

// Err returns the errors as a single error, or nil when there are only
// warnings.
func (is Issues) Err() error {
	var msgs []string
	for _, i := range is {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

// Validate crawls def from its initial activity and reports what a run
// cannot reach or cannot leave.
//
// Entering an activity makes its nested entry points reachable: the nested
// initial activity of a sub process, or every nested activity without
// incoming transitions.
func Validate(def *domain.ProcessDefinition) Issues {
	var issues Issues
	initial := def.Initial()
	if initial == nil {
		return append(issues, Issue{Severity: SeverityError, Message: "no initial activity"})
	}

	visited := make(map[*domain.Activity]bool)
	queue := []*domain.Activity{initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, t := range current.Outgoing() {
			if t.Destination() == nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Activity: current.ID(),
					Message:  fmt.Sprintf("transition %q has no destination", t.ID()),
				})
				continue
			}
			queue = append(queue, t.Destination())
		}
		queue = append(queue, entryPoints(current)...)
	}

	def.Walk(func(a *domain.Activity) {
		if !visited[a] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Activity: strings.Join(a.Path(), "/"),
				Message:  "unreachable from the initial activity",
			})
		}
		if a.Behavior() == nil && len(a.Outgoing()) > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Activity: strings.Join(a.Path(), "/"),
				Message:  fmt.Sprintf("no behavior to choose between %d outgoing transitions", len(a.Outgoing())),
			})
		}
		if v, ok := a.Property(behavior.InitialProperty); ok {
			id, _ := v.(string)
			if _, found := a.Activity(id); !found {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Activity: strings.Join(a.Path(), "/"),
					Message:  fmt.Sprintf("nested initial activity %q not found", id),
				})
			}
		}
	})
	return issues
}

func entryPoints(a *domain.Activity) []*domain.Activity {
	if v, ok := a.Property(behavior.InitialProperty); ok {
		id, _ := v.(string)
		if nested, found := a.Activity(id); found {
			return []*domain.Activity{nested}
		}
		return nil
	}
	var entries []*domain.Activity
	for _, n := range a.Activities() {
		if len(n.Incoming()) == 0 {
			entries = append(entries, n)
		}
	}
	if len(entries) == 0 && len(a.Activities()) > 0 {
		entries = append(entries, a.Activities()[0])
	}
	return entries
}

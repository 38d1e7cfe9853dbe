package dsl

import "github.com/aretw0/pvm/pkg/domain"

type frameKind int

const (
	frameDefinition frameKind = iota
	frameActivity
)

// frame is one entry of the construction stack.
type frame struct {
	kind       frameKind
	scope      *domain.Scope
	definition *domain.ProcessDefinition
	activity   *domain.Activity
}

// selection is what property and listener calls currently apply to.
type selection struct {
	frame
	transition *domain.Transition
}

func (s selection) isTransition() bool {
	return s.transition != nil
}

// element returns the selected graph element.
func (s selection) element() propertyHolder {
	switch {
	case s.transition != nil:
		return s.transition
	case s.kind == frameActivity:
		return s.activity
	default:
		return s.definition
	}
}

type propertyHolder interface {
	domain.Element
	SetProperty(name string, value any)
}

// pendingTransition is a transition waiting for its destination to be resolved.
type pendingTransition struct {
	transition    *domain.Transition
	destinationID string
}

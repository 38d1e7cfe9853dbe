package runtime

import "github.com/aretw0/pvm/pkg/domain"

// fire notifies listeners in registration order with e as the event carrier.
// The first listener error stops the dispatch and is returned as is.
func (e *Execution) fire(event string, source domain.Element, listeners []domain.ExecutionListener) error {
	if len(listeners) == 0 {
		return nil
	}
	prevName, prevSource := e.eventName, e.eventSource
	e.eventName, e.eventSource = event, source
	defer func() {
		e.eventName, e.eventSource = prevName, prevSource
	}()
	for _, l := range listeners {
		if err := l.Notify(e); err != nil {
			return err
		}
	}
	return nil
}

// fireActivity dispatches a start or end event of an activity, then the
// matching hook.
func (e *Execution) fireActivity(event string, a *domain.Activity) error {
	if err := e.fire(event, a, a.ExecutionListeners(event)); err != nil {
		return err
	}
	switch event {
	case domain.EventStart:
		if h := e.cfg.hooks.OnActivityStart; h != nil {
			h(e, a)
		}
	case domain.EventEnd:
		if h := e.cfg.hooks.OnActivityEnd; h != nil {
			h(e, a)
		}
	}
	return nil
}

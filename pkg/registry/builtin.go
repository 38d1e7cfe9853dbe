package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/schema"
)

// Default returns a registry with the stock behaviors and listeners.
//
// Behaviors: wait, automatic, end, exclusive, parallel, subprocess, fail.
// Listeners: log (writes the event to logger), set (copies its "variables"
// parameter into the execution), require (fails the operation unless the
// visible variables match the schema in its "variables" parameter).
func Default(logger *slog.Logger) *Registry {
	r := NewRegistry()
	stock := map[string]domain.ActivityBehavior{
		"wait":       behavior.WaitState{},
		"automatic":  behavior.Automatic{},
		"end":        behavior.End{},
		"exclusive":  behavior.ExclusiveGateway{},
		"parallel":   behavior.ParallelGateway{},
		"subprocess": behavior.EmbeddedSubProcess{},
	}
	for name, b := range stock {
		r.RegisterBehavior(name, func(map[string]any) (domain.ActivityBehavior, error) { return b, nil })
	}
	r.RegisterBehavior("fail", func(params map[string]any) (domain.ActivityBehavior, error) {
		msg, _ := params["message"].(string)
		if msg == "" {
			return behavior.Fail{}, nil
		}
		return behavior.Fail{Err: errors.New(msg)}, nil
	})

	r.RegisterListener("log", func(params map[string]any) (domain.ExecutionListener, error) {
		msg, _ := params["message"].(string)
		if msg == "" {
			msg = "Process event"
		}
		return domain.ListenerFunc(func(e domain.ListenerExecution) error {
			logger.Info(msg,
				"event", e.EventName(),
				"source", e.EventSource().ID(),
				"execution_id", e.ID(),
			)
			return nil
		}), nil
	})
	r.RegisterListener("set", func(params map[string]any) (domain.ExecutionListener, error) {
		vars, ok := params["variables"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("set listener: %q parameter must be a map", "variables")
		}
		return domain.ListenerFunc(func(e domain.ListenerExecution) error {
			e.SetVariables(vars)
			return nil
		}), nil
	})
	r.RegisterListener("require", func(params map[string]any) (domain.ExecutionListener, error) {
		raw, ok := params["variables"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("require listener: %q parameter must be a map", "variables")
		}
		s, err := schema.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("require listener: %w", err)
		}
		return domain.ListenerFunc(func(e domain.ListenerExecution) error {
			if err := s.Validate(e.Variables()); err != nil {
				return fmt.Errorf("%s %s: %w", e.EventSource().ID(), e.EventName(), err)
			}
			return nil
		}), nil
	})

	return r
}

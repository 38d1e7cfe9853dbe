package observability

import (
	"log/slog"
	"strings"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/runtime"
)

// Chain returns hooks that call every non-nil hook of hs in order.
func Chain(hs ...runtime.Hooks) runtime.Hooks {
	return runtime.Hooks{
		OnActivityStart: func(e *runtime.Execution, a *domain.Activity) {
			for _, h := range hs {
				if h.OnActivityStart != nil {
					h.OnActivityStart(e, a)
				}
			}
		},
		OnActivityEnd: func(e *runtime.Execution, a *domain.Activity) {
			for _, h := range hs {
				if h.OnActivityEnd != nil {
					h.OnActivityEnd(e, a)
				}
			}
		},
		OnTransitionTake: func(e *runtime.Execution, t *domain.Transition) {
			for _, h := range hs {
				if h.OnTransitionTake != nil {
					h.OnTransitionTake(e, t)
				}
			}
		},
		OnAsyncScheduled: func(e *runtime.Execution, a *domain.Activity) {
			for _, h := range hs {
				if h.OnAsyncScheduled != nil {
					h.OnAsyncScheduled(e, a)
				}
			}
		},
		OnProcessEnd: func(e *runtime.Execution) {
			for _, h := range hs {
				if h.OnProcessEnd != nil {
					h.OnProcessEnd(e)
				}
			}
		},
	}
}

// LogHooks logs every runtime event at debug level, and process ends at info.
func LogHooks(logger *slog.Logger) runtime.Hooks {
	return runtime.Hooks{
		OnActivityStart: func(e *runtime.Execution, a *domain.Activity) {
			logger.Debug("activity_start", attrs(e, "activity", activityPath(a))...)
		},
		OnActivityEnd: func(e *runtime.Execution, a *domain.Activity) {
			logger.Debug("activity_end", attrs(e, "activity", activityPath(a))...)
		},
		OnTransitionTake: func(e *runtime.Execution, t *domain.Transition) {
			logger.Debug("transition_take", attrs(e, "transition", t.String())...)
		},
		OnAsyncScheduled: func(e *runtime.Execution, a *domain.Activity) {
			logger.Debug("async_scheduled", attrs(e, "activity", activityPath(a))...)
		},
		OnProcessEnd: func(e *runtime.Execution) {
			args := attrs(e)
			if reason := e.DeleteReason(); reason != "" {
				args = append(args, "reason", reason)
			}
			logger.Info("process_end", args...)
		},
	}
}

func attrs(e *runtime.Execution, kv ...any) []any {
	return append([]any{
		"process", e.ProcessDefinition().ID(),
		"execution_id", e.ID(),
	}, kv...)
}

func activityPath(a *domain.Activity) string {
	return strings.Join(a.Path(), "/")
}

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidVariables is matched by every validation failure.
var ErrInvalidVariables = errors.New("invalid variables")

// ValidationError is a single variable that failed its type.
type ValidationError struct {
	Key    string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("variable %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("variable %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError collects the failures of one validation, ordered by key.
type AggregateError struct {
	Errors []*ValidationError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d invalid variables: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AggregateError) Is(target error) bool {
	return target == ErrInvalidVariables
}

// ValidationErrors returns the individual failures wrapped in err, if any.
func ValidationErrors(err error) []*ValidationError {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

package schema

import (
	"fmt"
	"maps"
	"slices"
)

// Schema maps variable names to their expected types.
type Schema map[string]Type

// Parse builds a schema from document parameters. Every value must be the
// textual form of a type.
func Parse(raw map[string]any) (Schema, error) {
	s := make(Schema, len(raw))
	for key, v := range raw {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("variable %q: type must be a string, got %T", key, v)
		}
		t, err := ParseType(str)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", key, err)
		}
		s[key] = t
	}
	return s, nil
}

// Validate checks vars against s. Variables not named in s are ignored.
// The returned error is an *AggregateError matching ErrInvalidVariables.
func (s Schema) Validate(vars map[string]any) error {
	var errs []*ValidationError
	for _, key := range slices.Sorted(maps.Keys(s)) {
		t := s[key]
		value, ok := vars[key]
		if !ok {
			if !isOptional(t) {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := t.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Names returns "key: type" pairs sorted by key.
func (s Schema) Names() []string {
	out := make([]string, 0, len(s))
	for _, key := range slices.Sorted(maps.Keys(s)) {
		out = append(out, key+": "+s[key].Name())
	}
	return out
}

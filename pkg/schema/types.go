package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type validates a single variable value.
type Type interface {
	Name() string
	Validate(value any) error
}

type basicType struct {
	name  string
	check func(any) bool
}

func (t basicType) Name() string { return t.name }

func (t basicType) Validate(value any) error {
	if !t.check(value) {
		return fmt.Errorf("expected %s", t.name)
	}
	return nil
}

// String accepts strings.
func String() Type {
	return basicType{"string", func(v any) bool { _, ok := v.(string); return ok }}
}

// Bool accepts booleans.
func Bool() Type {
	return basicType{"bool", func(v any) bool { _, ok := v.(bool); return ok }}
}

// Int accepts integers, and floats holding whole numbers as decoded from JSON.
func Int() Type {
	return basicType{"int", func(v any) bool {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return n == float64(int64(n))
		case float32:
			return n == float32(int64(n))
		}
		return false
	}}
}

// Float accepts any number.
func Float() Type {
	return basicType{"float", func(v any) bool {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	}}
}

// Map accepts string keyed maps.
func Map() Type {
	return basicType{"map", func(v any) bool {
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	}}
}

// Any accepts every present value, nil included.
func Any() Type {
	return basicType{"any", func(any) bool { return true }}
}

type sliceType struct {
	elem Type
}

// Slice accepts slices whose elements all match elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s", t.Name())
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type optionalType struct {
	Type
}

// Optional lets the variable be absent. Present values must still match t.
func Optional(t Type) Type { return optionalType{t} }

func (t optionalType) Name() string { return t.Type.Name() + "?" }

func isOptional(t Type) bool {
	_, ok := t.(optionalType)
	return ok
}

// Custom builds a type from a validation function.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string             { return t.name }
func (t customType) Validate(value any) error { return t.validate(value) }

// ParseType reads the textual form of a type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if base, ok := strings.CutSuffix(s, "?"); ok {
		t, err := ParseType(base)
		if err != nil {
			return nil, err
		}
		return Optional(t), nil
	}
	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	switch s {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "map":
		return Map(), nil
	case "any":
		return Any(), nil
	}
	return nil, fmt.Errorf("unsupported type %q", s)
}

package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/pvm/pkg/ports"
	"github.com/aretw0/pvm/pkg/runtime"
)

// Mask replaces the values of masked variables.
const Mask = "***"

type piiMiddleware struct {
	next     ports.InstanceStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks variables whose names
// match any of the patterns, in every execution of the snapshot and inside
// nested maps. Masked values are not recoverable on Load.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.InstanceStore) ports.InstanceStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, instanceID string, snap *runtime.Snapshot) error {
	// The caller keeps using snap, so the masking happens on a copy.
	masked := m.mask(*snap)
	return m.next.Save(ctx, instanceID, &masked)
}

func (m *piiMiddleware) mask(s runtime.Snapshot) runtime.Snapshot {
	if s.Variables != nil {
		s.Variables = deepCopyMap(s.Variables)
		maskMap(s.Variables, m.patterns)
	}
	if s.Executions != nil {
		children := make([]runtime.Snapshot, len(s.Executions))
		for i, c := range s.Executions {
			children[i] = m.mask(c)
		}
		s.Executions = children
	}
	if s.SubProcessInstance != nil {
		sub := m.mask(*s.SubProcessInstance)
		s.SubProcessInstance = &sub
	}
	return s
}

func (m *piiMiddleware) Load(ctx context.Context, instanceID string) (*runtime.Snapshot, error) {
	return m.next.Load(ctx, instanceID)
}

func (m *piiMiddleware) Delete(ctx context.Context, instanceID string) error {
	return m.next.Delete(ctx, instanceID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok && !masked {
			maskMap(subMap, patterns)
		}
	}
}

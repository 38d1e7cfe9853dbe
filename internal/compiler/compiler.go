package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/dsl"
	"github.com/aretw0/pvm/pkg/registry"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument wraps structural problems of a process document.
var ErrInvalidDocument = errors.New("invalid process document")

// Compiler turns process documents into definitions, resolving behavior and
// listener names through a registry.
type Compiler struct {
	registry *registry.Registry
}

// New creates a compiler backed by reg.
func New(reg *registry.Registry) *Compiler {
	return &Compiler{registry: reg}
}

// Parse decodes YAML (or JSON, which is valid YAML) into a Document.
// Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	return &doc, nil
}

// Compile builds the definition described by doc.
func (c *Compiler) Compile(doc *Document) (*domain.ProcessDefinition, error) {
	b := dsl.New(doc.ID).Name(doc.Name)
	setProperties(b, doc.Properties)
	if err := c.scopeListeners(b, doc.Listeners, "process "+doc.ID); err != nil {
		return nil, err
	}
	for _, a := range doc.Activities {
		if err := c.activity(b, a, doc.Initial, true); err != nil {
			return nil, err
		}
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("process %q: %w", doc.ID, err)
	}
	return def, nil
}

// Load parses and compiles a document.
func (c *Compiler) Load(data []byte) (*domain.ProcessDefinition, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return c.Compile(doc)
}

// LoadFile compiles the document at path.
func (c *Compiler) LoadFile(path string) (*domain.ProcessDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := c.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Files lists the *.yaml, *.yml and *.json files of dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains([]string{".yaml", ".yml", ".json"}, filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// LoadDir compiles every document listed by Files.
func (c *Compiler) LoadDir(dir string) ([]*domain.ProcessDefinition, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}
	defs := make([]*domain.ProcessDefinition, 0, len(files))
	for _, f := range files {
		def, err := c.LoadFile(f)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (c *Compiler) activity(b *dsl.ProcessDefinitionBuilder, a Activity, initial string, top bool) error {
	b.CreateActivity(a.ID)
	if top && (a.Initial || (initial != "" && a.ID == initial)) {
		b.Initial()
	}
	if a.Behavior != "" {
		beh, err := c.registry.Behavior(a.Behavior, a.Params)
		if err != nil {
			return fmt.Errorf("activity %q: %w", a.ID, err)
		}
		b.Behavior(beh)
	}
	if a.Scope {
		b.Scope()
	}
	if a.Async {
		b.Async()
	}
	if a.Exclusive {
		b.Exclusive()
	}
	setProperties(b, a.Properties)
	for _, nested := range a.Activities {
		if nested.Initial {
			b.Property(behavior.InitialProperty, nested.ID)
			break
		}
	}
	if err := c.scopeListeners(b, a.Listeners, "activity "+a.ID); err != nil {
		return err
	}

	for _, t := range a.Transitions {
		if t.To == "" {
			return fmt.Errorf("%w: activity %q has a transition without destination", ErrInvalidDocument, a.ID)
		}
		b.StartTransition(t.To, t.ID)
		if t.Condition != "" {
			b.Property(behavior.ConditionProperty, t.Condition)
		}
		setProperties(b, t.Properties)
		for _, l := range t.Listeners {
			listener, err := c.registry.Listener(l.Type, l.Params)
			if err != nil {
				return fmt.Errorf("transition %s->%s: %w", a.ID, t.To, err)
			}
			b.TransitionListener(listener)
		}
		b.EndTransition()
	}

	for _, nested := range a.Activities {
		if err := c.activity(b, nested, initial, false); err != nil {
			return err
		}
	}
	b.EndActivity()
	return nil
}

func (c *Compiler) scopeListeners(b *dsl.ProcessDefinitionBuilder, listeners []Listener, owner string) error {
	for _, l := range listeners {
		if l.Event != domain.EventStart && l.Event != domain.EventEnd {
			return fmt.Errorf("%w: %s: listener event must be %q or %q, got %q",
				ErrInvalidDocument, owner, domain.EventStart, domain.EventEnd, l.Event)
		}
		listener, err := c.registry.Listener(l.Type, l.Params)
		if err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		b.ExecutionListener(l.Event, listener)
	}
	return nil
}

// setProperties applies properties in key order.
func setProperties(b *dsl.ProcessDefinitionBuilder, props map[string]any) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Property(k, props[k])
	}
}

package pvm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/pvm/internal/compiler"
	"github.com/aretw0/pvm/pkg/adapters/memory"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/instance"
	"github.com/aretw0/pvm/pkg/observability"
	"github.com/aretw0/pvm/pkg/ports"
	"github.com/aretw0/pvm/pkg/registry"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is the high-level entry point: it compiles process documents,
// keeps the definitions and drives instances through an instance.Manager.
type Engine struct {
	registry    *registry.Registry
	compiler    *compiler.Compiler
	definitions *memory.Repository
	store       ports.InstanceStore
	manager     *instance.Manager
	metrics     *observability.Metrics

	logger     *slog.Logger
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	jobBuffer  int
	registerer prometheus.Registerer
	hooks      []runtime.Hooks
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry replaces the stock behaviors and listeners.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithStore persists instances in s instead of memory.
func WithStore(s ports.InstanceStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes instances across processes.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithAsyncJobs queues async continuations for Work instead of running them inline.
func WithAsyncJobs(buffer int) Option {
	return func(e *Engine) {
		e.jobBuffer = buffer
	}
}

// WithMetrics registers Prometheus metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = reg
	}
}

// WithHooks adds runtime hooks next to the logging and metrics ones.
func WithHooks(h runtime.Hooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, h)
	}
}

// New creates an Engine and loads the process documents found in dir.
// An empty dir starts without definitions; see Register and LoadDir.
func New(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{definitions: memory.NewRepository()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.registry == nil {
		e.registry = registry.Default(e.logger)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	e.compiler = compiler.New(e.registry)

	hooks := append([]runtime.Hooks{observability.LogHooks(e.logger)}, e.hooks...)
	if e.registerer != nil {
		e.metrics = observability.NewMetrics(e.registerer)
		hooks = append(hooks, e.metrics.Hooks())
	}

	managerOpts := []instance.Option{
		instance.WithLogger(e.logger),
		instance.WithHooks(observability.Chain(hooks...)),
	}
	if e.locker != nil {
		managerOpts = append(managerOpts, instance.WithLocker(e.locker, e.lockTTL))
	}
	if e.jobBuffer > 0 {
		managerOpts = append(managerOpts, instance.WithAsyncJobs(e.jobBuffer))
	}
	e.manager = instance.NewManager(e.definitions, e.store, managerOpts...)

	if dir != "" {
		if err := e.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// LoadDir compiles and registers every process document of dir. Definitions
// with validation errors are rejected; warnings are logged.
func (e *Engine) LoadDir(dir string) error {
	defs, err := e.compiler.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := e.Register(def); err != nil {
			return err
		}
	}
	e.logger.Info("Process definitions loaded", "dir", dir, "count", len(defs))
	return nil
}

// Register validates def and makes it available to Start.
func (e *Engine) Register(def *domain.ProcessDefinition) error {
	issues := compiler.Validate(def)
	for _, i := range issues {
		if i.Severity == compiler.SeverityWarning {
			e.logger.Warn("Process definition warning", "process", def.ID(), "activity", i.Activity, "msg", i.Message)
		}
	}
	if err := issues.Err(); err != nil {
		return fmt.Errorf("process %q: %w", def.ID(), err)
	}
	return e.definitions.Register(def)
}

// Start creates and runs a new instance of the definition.
func (e *Engine) Start(ctx context.Context, definitionID string, vars map[string]any) (*instance.Status, error) {
	return e.manager.Start(ctx, definitionID, vars)
}

// Signal signals the execution of the instance waiting in activityID.
func (e *Engine) Signal(ctx context.Context, instanceID, activityID, signalName string, data any) (*instance.Status, error) {
	return e.manager.Signal(ctx, instanceID, activityID, signalName, data)
}

// Status returns the state of an instance.
func (e *Engine) Status(ctx context.Context, instanceID string) (*instance.Status, error) {
	return e.manager.Status(ctx, instanceID)
}

// Work consumes async jobs until ctx is done. It needs WithAsyncJobs.
func (e *Engine) Work(ctx context.Context, workers int) error {
	return e.manager.Work(ctx, workers)
}

// Definition returns a registered definition.
func (e *Engine) Definition(ctx context.Context, id string) (*domain.ProcessDefinition, error) {
	return e.definitions.Definition(ctx, id)
}

// Definitions returns the definition repository.
func (e *Engine) Definitions() ports.DefinitionRepository {
	return e.definitions
}

// Manager returns the instance manager.
func (e *Engine) Manager() *instance.Manager {
	return e.manager
}

// Compiler returns the document compiler bound to the engine's registry.
func (e *Engine) Compiler() *compiler.Compiler {
	return e.compiler
}

// Metrics returns the metrics, or nil without WithMetrics.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

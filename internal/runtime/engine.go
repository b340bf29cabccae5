package runtime

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/pageflow/internal/conditions"
	"github.com/aretw0/pageflow/internal/sandbox"
	"github.com/aretw0/pageflow/pkg/domain"
)

const tracerName = "github.com/aretw0/pageflow"

// Engine is the page flow state machine runner.
// It holds only configuration: every Generate call works on its own snapshot
// and returns its own diagnostics, so one Engine may serve concurrent callers.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	tracer trace.Tracer

	debug         bool
	maxIterations int

	strictEquality    bool
	allowUnsafe       bool
	scriptTimeout     time.Duration
	complexityCeiling int
	clock             func() time.Time
	newRunID          func() string

	conditions *conditions.Evaluator
	sandbox    *sandbox.Sandbox
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracerProvider sets the OpenTelemetry provider spans are created from.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithDebug enables execution-log entries in the returned diagnostics.
func WithDebug(debug bool) EngineOption {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithMaxIterations sets the global ceiling on page visits per run and on
// repetitions per page. Non-positive values keep the default.
func WithMaxIterations(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithStrictEquality makes equals/not_equals conditions compare without coercion.
func WithStrictEquality(strict bool) EngineOption {
	return func(e *Engine) {
		e.strictEquality = strict
	}
}

// WithAllowUnsafeExpressions disables the script identifier denylist. UNSAFE.
func WithAllowUnsafeExpressions(allow bool) EngineOption {
	return func(e *Engine) {
		e.allowUnsafe = allow
	}
}

// WithScriptTimeout bounds each script condition.
func WithScriptTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.scriptTimeout = d
		}
	}
}

// WithComplexityCeiling sets the script complexity warning threshold.
func WithComplexityCeiling(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.complexityCeiling = n
		}
	}
}

// WithClock overrides the time source of script now() calls and event timestamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRunIDGenerator overrides how run identifiers are minted.
func WithRunIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:            slog.New(slog.DiscardHandler),
		tracer:            otel.Tracer(tracerName),
		maxIterations:     domain.DefaultMaxIterations,
		scriptTimeout:     domain.DefaultScriptTimeout,
		complexityCeiling: domain.DefaultComplexityCeiling,
		clock:             time.Now,
		newRunID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.conditions = conditions.New(
		conditions.WithStrictEquality(e.strictEquality),
		conditions.WithLogger(e.logger),
	)
	e.sandbox = sandbox.New(
		sandbox.WithAllowUnsafeExpressions(e.allowUnsafe),
		sandbox.WithStrictEquality(e.strictEquality),
		sandbox.WithTimeout(e.scriptTimeout),
		sandbox.WithComplexityCeiling(e.complexityCeiling),
		sandbox.WithClock(e.clock),
		sandbox.WithLogger(e.logger),
	)
	return e
}

// Sandbox returns the script sandbox configured for this engine.
func (e *Engine) Sandbox() *sandbox.Sandbox {
	return e.sandbox
}

// MaxIterations returns the effective global ceiling.
func (e *Engine) MaxIterations() int {
	return e.maxIterations
}

package pageflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/loam"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/pageflow/internal/adapters/file"
	"github.com/aretw0/pageflow/internal/runtime"
	"github.com/aretw0/pageflow/internal/validator"
	loamAdapter "github.com/aretw0/pageflow/pkg/adapters/loam"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/vars"
)

// Version is the library version reported by the CLI and adapters.
var Version = "0.4.0"

// Engine is the high-level entry point for the PageFlow library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.TemplateLoader
	cache   ports.SequenceCache
	hooks   domain.LifecycleHooks
	tracer  trace.TracerProvider
	logger  *slog.Logger
	cfg     Config
	Name    string
}

var _ ports.SequenceEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig replaces the engine settings. Options applied after it still win.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Combine(hooks)
	}
}

// WithTracerProvider sets the OpenTelemetry provider for generation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp
	}
}

// WithLoader injects the TemplateLoader used by Load.
func WithLoader(l ports.TemplateLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithCache makes Generate consult and fill a sequence cache.
func WithCache(c ports.SequenceCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithDebug enables execution-log entries in results.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.cfg.DebugMode = debug
	}
}

// WithMaxIterations sets the global visit and repetition ceiling.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.cfg.MaxIterations = n
	}
}

// WithAllowUnsafeExpressions disables the script identifier denylist. UNSAFE.
func WithAllowUnsafeExpressions(allow bool) Option {
	return func(e *Engine) {
		e.cfg.AllowUnsafeExpressions = allow
	}
}

// WithStrictEquality makes equals/not_equals compare without coercion.
func WithStrictEquality(strict bool) Option {
	return func(e *Engine) {
		e.cfg.StrictEquality = strict
	}
}

// WithScriptTimeout bounds each script condition.
func WithScriptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.cfg.ScriptTimeout = d
	}
}

// WithComplexityCeiling sets the script complexity warning threshold.
func WithComplexityCeiling(n int) Option {
	return func(e *Engine) {
		e.cfg.ComplexityCeiling = n
	}
}

// New initializes a new PageFlow Engine with the default configuration
// overridden by opts.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(eng)
	}

	if err := eng.cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("template", eng.Name)
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithTracerProvider(eng.tracer),
		runtime.WithDebug(eng.cfg.DebugMode),
		runtime.WithMaxIterations(eng.cfg.MaxIterations),
		runtime.WithStrictEquality(eng.cfg.StrictEquality),
		runtime.WithAllowUnsafeExpressions(eng.cfg.AllowUnsafeExpressions),
		runtime.WithScriptTimeout(eng.cfg.ScriptTimeout),
		runtime.WithComplexityCeiling(eng.cfg.ComplexityCeiling),
	)
	if eng.cfg.AllowUnsafeExpressions {
		eng.logger.Warn("unsafe expressions enabled: script denylist is disabled")
	}
	return eng, nil
}

// Open creates an Engine whose loader reads the template at path.
// A directory is read as a Loam repository of page documents; anything
// else is read as a single YAML or JSON template file.
func Open(path string, opts ...Option) (*Engine, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat template: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	var loader ports.TemplateLoader
	if info.IsDir() {
		// The engine never modifies templates, so the repository is read-only.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		typedRepo := loam.NewTypedRepository[loamAdapter.PageMetadata](repo)
		loader = loamAdapter.New(typedRepo, name)
	} else {
		loader = file.NewLoader(absPath)
	}

	opts = append([]Option{WithLoader(loader), withName(name)}, opts...)
	return New(opts...)
}

func withName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// Load reads the template from the configured loader.
func (e *Engine) Load(ctx context.Context) (*domain.Template, error) {
	if e.loader == nil {
		return nil, errors.New("no template loader configured")
	}
	return e.loader.Load(ctx)
}

// Inspect returns the pages of the loaded template for visualization or
// introspection tools.
func (e *Engine) Inspect(ctx context.Context) ([]domain.Page, error) {
	tpl, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	return tpl.Pages, nil
}

// Loader returns the underlying TemplateLoader, or nil.
func (e *Engine) Loader() ports.TemplateLoader {
	return e.loader
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Generate computes the page sequence of tpl for data, starting at start.
//
// Flow failures never produce an error: they are recorded in the result
// diagnostics next to the (possibly partial) sequence. The error return is
// reserved for invalid arguments.
func (e *Engine) Generate(ctx context.Context, tpl *domain.Template, data map[string]any, start int) (domain.Result, error) {
	if tpl == nil {
		return domain.Result{}, errors.New("template is nil")
	}

	var key string
	if e.cache != nil && cacheable(tpl) {
		k, err := e.cacheKey(tpl, data, start)
		if err != nil {
			e.logger.Warn("sequence cache key failed", "err", err)
		} else {
			key = k
			res, err := e.cache.Get(ctx, key)
			switch {
			case err == nil:
				res.Cached = true
				e.logger.Debug("sequence served from cache", "key", key, "run_id", res.RunID)
				if e.hooks.OnSequenceDone != nil {
					e.hooks.OnSequenceDone(ctx, domain.NewSequenceEvent(res))
				}
				return res, nil
			case !errors.Is(err, domain.ErrCacheMiss):
				e.logger.Warn("sequence cache read failed", "key", key, "err", err)
			}
		}
	}

	res := e.runtime.Generate(ctx, tpl.Pages, vars.New(data), start)

	if key != "" {
		if err := e.cache.Put(ctx, key, res); err != nil {
			e.logger.Warn("sequence cache write failed", "key", key, "err", err)
		}
	}
	return res, nil
}

// Validate statically checks tpl: flow configs, target ranges, script
// safety and reachability from start.
func (e *Engine) Validate(tpl *domain.Template, start int) *domain.Report {
	if tpl == nil {
		return &domain.Report{Errors: []*domain.FlowError{
			domain.NewFlowError(domain.KindConfiguration, -1, "template is nil", nil),
		}}
	}
	return validator.Validate(tpl.Pages,
		validator.WithStart(start),
		validator.WithSandbox(e.runtime.Sandbox()),
	)
}

// Decision is the outcome of evaluating one page's flow.
type Decision = runtime.Decision

// EvaluatePage runs the flow evaluator for a single page, outside of any
// sequence.
func (e *Engine) EvaluatePage(ctx context.Context, page domain.Page, data map[string]any) (Decision, domain.Diagnostics) {
	return e.runtime.EvaluatePage(ctx, page, vars.New(data))
}

// cacheable reports whether results of tpl only depend on the inputs.
// Scripts reading the clock are not.
func cacheable(tpl *domain.Template) bool {
	for _, page := range tpl.Pages {
		if page.Flow == nil {
			continue
		}
		for _, c := range page.Flow.Conditions {
			if c.Kind == domain.ConditionScript && strings.Contains(c.Script, "now(") {
				return false
			}
		}
	}
	return true
}

type cacheKeyInput struct {
	Pages  []domain.Page  `json:"pages"`
	Data   map[string]any `json:"data"`
	Start  int            `json:"start"`
	Config Config         `json:"config"`
}

func (e *Engine) cacheKey(tpl *domain.Template, data map[string]any, start int) (string, error) {
	payload, err := json.Marshal(cacheKeyInput{
		Pages:  tpl.Pages,
		Data:   data,
		Start:  start,
		Config: e.cfg,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

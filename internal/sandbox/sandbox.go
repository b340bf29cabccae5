// Package sandbox evaluates user-authored flow scripts as boolean expressions.
//
// Scripts are JavaScript-flavored expressions ("age >= 18 && isNotEmpty(name)")
// compiled with github.com/expr-lang/expr. Only context data and a fixed set of
// pure helpers are visible, and the grammar has no loop constructs, so every
// accepted script terminates.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/aretw0/pageflow/internal/conditions"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/vars"
)

var (
	// ErrForbidden marks scripts rejected by the containment check or the
	// grammar whitelist. It maps to a SecurityError.
	ErrForbidden = errors.New("forbidden script construct")
	// ErrSyntax marks scripts that cannot be normalized or parsed.
	ErrSyntax = errors.New("invalid script")
	// ErrRuntime marks faults raised while the program runs.
	ErrRuntime = errors.New("script runtime error")
	// ErrTimeout is returned when a run exceeds the configured timeout.
	ErrTimeout = errors.New("timeout")
)

// Sandbox compiles and runs scripts. It holds only configuration and is safe
// for concurrent use.
type Sandbox struct {
	allowUnsafe bool
	strict      bool
	timeout     time.Duration
	ceiling     int
	clock       func() time.Time
	logger      *slog.Logger
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithAllowUnsafeExpressions disables the identifier denylist.
// UNSAFE: only for fully trusted script authors. The grammar whitelist still applies.
func WithAllowUnsafeExpressions(allow bool) Option {
	return func(s *Sandbox) {
		s.allowUnsafe = allow
	}
}

// WithStrictEquality makes "==" and "!=" behave like "===" and "!==".
func WithStrictEquality(strict bool) Option {
	return func(s *Sandbox) {
		s.strict = strict
	}
}

// WithTimeout bounds a single run. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithComplexityCeiling sets the score above which a warning is attached.
// Zero disables the warning.
func WithComplexityCeiling(n int) Option {
	return func(s *Sandbox) {
		if n >= 0 {
			s.ceiling = n
		}
	}
}

// WithClock overrides the time source behind now().
func WithClock(clock func() time.Time) Option {
	return func(s *Sandbox) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sandbox) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Sandbox with the default timeout and complexity ceiling.
func New(opts ...Option) *Sandbox {
	s := &Sandbox{
		timeout: domain.DefaultScriptTimeout,
		ceiling: domain.DefaultComplexityCeiling,
		clock:   time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analysis is the static view of an accepted script.
type Analysis struct {
	Source string `json:"source"`
	// Program is the normalized expression handed to the compiler.
	Program    string   `json:"program"`
	Complexity int      `json:"complexity"`
	Warnings   []string `json:"warnings,omitempty"`

	locals map[string]bool
	strict map[int]bool
}

// Result is the outcome of one evaluation. Evaluate never panics; failures
// are reported through Success, Error and Err.
type Result struct {
	Success    bool     `json:"success"`
	Value      bool     `json:"value"`
	Error      string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Complexity int      `json:"complexity"`

	Err error `json:"-"`
}

// Kind classifies a failed result.
func (r Result) Kind() domain.ErrorKind {
	switch {
	case r.Success:
		return ""
	case errors.Is(r.Err, ErrForbidden):
		return domain.KindSecurity
	default:
		return domain.KindEvaluation
	}
}

// Analyze runs every static step: containment check, normalization, parsing,
// whitelist enforcement and complexity scoring. Nothing is executed.
func (s *Sandbox) Analyze(script string) (*Analysis, error) {
	tokens, err := tokenize(script)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if !s.allowUnsafe {
		if err := containment(tokens); err != nil {
			return nil, err
		}
	}

	program, err := normalize(tokens)
	if err != nil {
		return nil, err
	}

	tree, err := parser.Parse(program.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	inspect := &inspector{
		checkMembers: !s.allowUnsafe,
		locals:       make(map[string]bool),
	}
	ast.Walk(&tree.Node, inspect)
	if inspect.err != nil {
		return nil, inspect.err
	}

	a := &Analysis{
		Source:     script,
		Program:    program.String(),
		Complexity: inspect.complexity,
		locals:     inspect.locals,
		strict:     program.strict,
	}
	if s.ceiling > 0 && a.Complexity > s.ceiling {
		a.Warnings = append(a.Warnings,
			fmt.Sprintf("complexity score %d exceeds ceiling %d", a.Complexity, s.ceiling))
	}
	return a, nil
}

// Evaluate analyzes, compiles and runs script against data, coercing the
// value to a boolean with JavaScript truthiness. Logical, relational and
// equality operators follow JavaScript coercion, so untyped context data never
// makes an operator fail.
func (s *Sandbox) Evaluate(ctx context.Context, script string, data vars.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(res, fmt.Errorf("%w: %v", ErrRuntime, r))
		}
	}()

	a, err := s.Analyze(script)
	if err != nil {
		s.logger.Debug("script rejected", "script", script, "error", err)
		return failure(res, err)
	}
	res.Complexity = a.Complexity
	res.Warnings = a.Warnings
	for _, w := range a.Warnings {
		s.logger.Warn("script warning", "script", script, "warning", w)
	}

	env := buildEnv(data)
	program, err := expr.Compile(a.Program, s.compileOptions(env, data, a)...)
	if err != nil {
		return failure(res, fmt.Errorf("%w: %v", ErrSyntax, err))
	}

	out, err := s.run(ctx, program, env)
	if err != nil {
		s.logger.Debug("script failed", "script", script, "error", err)
		return failure(res, err)
	}

	res.Success = true
	res.Value = conditions.Truthy(out)
	s.logger.Debug("script evaluated", "script", script, "value", res.Value, "complexity", res.Complexity)
	return res
}

func failure(res Result, err error) Result {
	res.Success = false
	res.Value = false
	res.Err = err
	res.Error = err.Error()
	return res
}

func (s *Sandbox) compileOptions(env map[string]any, data vars.Context, a *Analysis) []expr.Option {
	opts := []expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.DisableAllBuiltins(),
		expr.Patch(&pathPatcher{locals: a.locals}),
		expr.Patch(&operatorPatcher{strict: a.strict, strictAll: s.strict}),
		expr.Function(pathFunc, func(params ...any) (any, error) {
			path, _ := params[0].(string)
			return resolvePath(data, path), nil
		}),
		expr.Function(truthyFunc, func(params ...any) (any, error) {
			return conditions.Truthy(params[0]), nil
		}),
		expr.Function(compareFunc, func(params ...any) (any, error) {
			op, _ := params[0].(string)
			return compare(op, params[1], params[2]), nil
		}),
	}
	return append(opts, helperOptions(s.clock)...)
}

type outcome struct {
	value any
	err   error
}

// run executes program on its own goroutine so a slow helper cannot hold the
// caller past the timeout.
func (s *Sandbox) run(ctx context.Context, program *vm.Program, env map[string]any) (any, error) {
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrRuntime, r)}
			}
		}()
		v, err := expr.Run(program, env)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrRuntime, err)
		}
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.value, o.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// buildEnv exposes the top-level context keys plus an underscore alias for
// every nested path (company.address.city -> company_address_city).
// Real keys win over aliases.
func buildEnv(data vars.Context) map[string]any {
	env := data.Map()
	for path, value := range data.Flatten() {
		alias := strings.ReplaceAll(path, ".", "_")
		if _, taken := env[alias]; !taken {
			env[alias] = value
		}
	}
	return env
}

// resolvePath looks path up in data. A trailing ".length" on a string or
// array yields its length.
func resolvePath(data vars.Context, path string) any {
	if v, ok := data.Lookup(path); ok {
		return v
	}
	if parent, found := strings.CutSuffix(path, ".length"); found {
		switch v := data.Value(parent).(type) {
		case string, []any:
			return conditions.Length(v)
		}
	}
	return nil
}

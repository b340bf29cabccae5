package sandbox

import (
	"fmt"
	"math"
	"time"

	"github.com/expr-lang/expr"

	"github.com/aretw0/pageflow/internal/conditions"
)

// pathFunc resolves member chains (a.b[0].c) through vars.Context.
// Scripts cannot call it directly: it is injected after the whitelist check.
const pathFunc = "__path"

// truthyFunc and compareFunc carry JavaScript operator semantics. Like
// pathFunc they are only reachable through the operator patcher.
const (
	truthyFunc  = "__truthy"
	compareFunc = "__compare"
)

// compare applies a relational or equality operator. "==" is loose, "==="
// strict.
func compare(op string, a, b any) bool {
	switch op {
	case "==":
		return conditions.LooseEqual(a, b)
	case "!=":
		return !conditions.LooseEqual(a, b)
	case "===":
		return conditions.StrictEqual(a, b)
	case "!==":
		return !conditions.StrictEqual(a, b)
	default:
		return conditions.Relational(op, a, b)
	}
}

// helperAliases maps script spellings that collide with grammar keywords or
// carry a namespace onto the registered helper names.
var helperAliases = map[string]string{
	"contains":   "fn_contains",
	"startsWith": "fn_startsWith",
	"endsWith":   "fn_endsWith",
	"now":        "fn_now",
}

var mathHelpers = map[string]func(args []float64) (float64, error){
	"abs":   unary(math.Abs),
	"ceil":  unary(math.Ceil),
	"floor": unary(math.Floor),
	"round": unary(func(x float64) float64 { return math.Floor(x + 0.5) }),
	"sqrt":  unary(math.Sqrt),
	"pow": func(args []float64) (float64, error) {
		if len(args) != 2 {
			return 0, fmt.Errorf("expects 2 arguments, got %d", len(args))
		}
		return math.Pow(args[0], args[1]), nil
	},
	"min": func(args []float64) (float64, error) {
		out := math.Inf(1)
		for _, a := range args {
			if math.IsNaN(a) {
				return math.NaN(), nil
			}
			out = math.Min(out, a)
		}
		return out, nil
	},
	"max": func(args []float64) (float64, error) {
		out := math.Inf(-1)
		for _, a := range args {
			if math.IsNaN(a) {
				return math.NaN(), nil
			}
			out = math.Max(out, a)
		}
		return out, nil
	},
}

func unary(fn func(float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("expects 1 argument, got %d", len(args))
		}
		return fn(args[0]), nil
	}
}

// whitelist is the set of callable names after normalization.
var whitelist = func() map[string]bool {
	names := map[string]bool{
		"isEmpty":    true,
		"isNotEmpty": true,
		"length":     true,
	}
	for _, alias := range helperAliases {
		names[alias] = true
	}
	for name := range mathHelpers {
		names["math_"+name] = true
	}
	return names
}()

// helperOptions registers every whitelisted helper with expr.
func helperOptions(clock func() time.Time) []expr.Option {
	opts := []expr.Option{
		expr.Function("isEmpty", func(params ...any) (any, error) {
			if err := arity("isEmpty", params, 1); err != nil {
				return nil, err
			}
			return conditions.IsEmpty(params[0]), nil
		}),
		expr.Function("isNotEmpty", func(params ...any) (any, error) {
			if err := arity("isNotEmpty", params, 1); err != nil {
				return nil, err
			}
			return !conditions.IsEmpty(params[0]), nil
		}),
		expr.Function("length", func(params ...any) (any, error) {
			if err := arity("length", params, 1); err != nil {
				return nil, err
			}
			return conditions.Length(params[0]), nil
		}),
		expr.Function("fn_contains", func(params ...any) (any, error) {
			if err := arity("contains", params, 2); err != nil {
				return nil, err
			}
			return conditions.Contains(params[0], params[1]), nil
		}),
		expr.Function("fn_startsWith", func(params ...any) (any, error) {
			if err := arity("startsWith", params, 2); err != nil {
				return nil, err
			}
			return conditions.StartsWith(params[0], params[1]), nil
		}),
		expr.Function("fn_endsWith", func(params ...any) (any, error) {
			if err := arity("endsWith", params, 2); err != nil {
				return nil, err
			}
			return conditions.EndsWith(params[0], params[1]), nil
		}),
		expr.Function("fn_now", func(params ...any) (any, error) {
			return clock().UnixMilli(), nil
		}),
	}
	for name, fn := range mathHelpers {
		opts = append(opts, expr.Function("math_"+name, func(params ...any) (any, error) {
			args := make([]float64, len(params))
			for i, p := range params {
				args[i] = conditions.ToNumber(p)
			}
			out, err := fn(args)
			if err != nil {
				return nil, fmt.Errorf("math %s: %w", name, err)
			}
			return out, nil
		}))
	}
	return opts
}

func arity(name string, params []any, want int) error {
	if len(params) != want {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, want, len(params))
	}
	return nil
}

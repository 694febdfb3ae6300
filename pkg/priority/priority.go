// Package priority evaluates the optional operator-supplied priority-weight
// expression that overrides the tasks manager's default weight formula
//. It wraps expr-lang/expr the way the
// an expression engine wraps rule evaluation: compile once,
// cache the program, run it per call.
package priority

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultWeight is the weight formula used when no override expression is
// configured: lower weight sorts first, so higher priority yields a lower
// weight.
func DefaultWeight(priorityValue, maxPriority, arrivalIndex int) int {
	return maxPriority - priorityValue
}

// Evaluator compiles and caches a single priority-weight expression.
// Evaluator is not safe for concurrent use; the tasks manager owns one
// instance and calls it from a single goroutine per tick.
type Evaluator struct {
	expression string
	program    *vm.Program
}

// NewEvaluator compiles expression once, up front, so a malformed operator
// override is reported at construction time rather than on the first tick.
func NewEvaluator(expression string) (*Evaluator, error) {
	env := map[string]interface{}{
		"priority":     0,
		"maxPriority":  0,
		"arrivalIndex": 0,
	}
	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("compile priority weight expression: %w", err)
	}
	return &Evaluator{expression: expression, program: program}, nil
}

// Weight runs the compiled expression with the given variables and returns
// the resulting weight. Lower weights sort earlier.
func (e *Evaluator) Weight(priorityValue, maxPriority, arrivalIndex int) (float64, error) {
	env := map[string]interface{}{
		"priority":     priorityValue,
		"maxPriority":  maxPriority,
		"arrivalIndex": arrivalIndex,
	}
	output, err := expr.Run(e.program, env)
	if err != nil {
		return 0, fmt.Errorf("evaluate priority weight expression %q: %w", e.expression, err)
	}
	switch v := output.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("priority weight expression %q did not return a number, got %T", e.expression, output)
	}
}

// Package expression evaluates decision-gateway flow conditions using
// expr-lang/expr, the same expression engine the teacher wires in for
// its predicate-bearing node types.
package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs boolean flow-condition expressions against an
// instance's variables map. Compiled programs are cached by source text
// since a definition's conditions are re-evaluated on every pass through a
// decision task.
type Evaluator struct {
	programCache map[string]*vm.Program
}

// New creates an expression evaluator.
func New() *Evaluator {
	return &Evaluator{programCache: make(map[string]*vm.Program)}
}

// EvaluateBoolean evaluates expression against variables and returns its
// boolean result. variables is exposed to the expression both as the root
// environment (so `amount > 100` works directly) and under the "variables"
// key (so `variables.amount > 100` also works).
func (e *Evaluator) EvaluateBoolean(expression string, variables map[string]interface{}) (bool, error) {
	env := e.buildEnvironment(variables)

	program, ok := e.programCache[expression]
	if !ok {
		var err error
		program, err = expr.Compile(expression, expr.Env(env))
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrCompilationFailed, err)
		}
		e.programCache[expression] = program
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNotBoolean, output)
	}
	return result, nil
}

// buildEnvironment exposes variables directly plus a handful of string
// helpers expr-lang doesn't provide natively.
func (e *Evaluator) buildEnvironment(variables map[string]interface{}) map[string]interface{} {
	env := make(map[string]interface{}, len(variables)+8)

	env["contains"] = func(s, substr string) bool { return strings.Contains(s, substr) }
	env["startsWith"] = func(s, prefix string) bool { return strings.HasPrefix(s, prefix) }
	env["endsWith"] = func(s, suffix string) bool { return strings.HasSuffix(s, suffix) }
	env["upper"] = strings.ToUpper
	env["lower"] = strings.ToLower
	env["trim"] = strings.TrimSpace

	env["variables"] = variables
	for k, v := range variables {
		if k != "variables" {
			env[k] = v
		}
	}

	return env
}

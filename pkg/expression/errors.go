package expression

import "errors"

// Sentinel errors for expression evaluation.
var (
	ErrCompilationFailed = errors.New("expression compilation failed")
	ErrEvaluationFailed  = errors.New("expression evaluation failed")
	ErrNotBoolean        = errors.New("expression did not evaluate to a boolean")
)

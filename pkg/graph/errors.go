package graph

import "errors"

// Sentinel errors for graph validation.
var (
	ErrCycleDetected = errors.New("task graph contains a cycle")
	ErrTaskNotFound  = errors.New("task not found in graph")
)

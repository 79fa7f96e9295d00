package node

import "errors"

// Sentinel errors for node execution.
var (
	// ErrTaskNotFound is returned when a flow references a task id the
	// owning instance's definition does not carry.
	ErrTaskNotFound = errors.New("task not found in definition")
	// ErrFlowNotFound is returned when a task references an outgoing flow
	// id the owning instance's definition does not carry.
	ErrFlowNotFound = errors.New("flow not found in definition")
)

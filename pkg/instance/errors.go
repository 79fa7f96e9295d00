package instance

import "errors"

// Sentinel errors for process instance operations.
var (
	ErrNotNew          = errors.New("instance is not in NEW status")
	ErrTaskNotFound    = errors.New("task not found in definition")
	ErrNodeNotFound    = errors.New("no live node for task id")
	ErrDefinitionNil   = errors.New("process definition is required")
	ErrDeserializeTask = errors.New("persisted node references an unknown task")
)

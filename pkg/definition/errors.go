package definition

import "errors"

// Sentinel errors for building a process definition.
var (
	ErrDuplicateTaskName  = errors.New("duplicate task name")
	ErrUnknownTask        = errors.New("flow references an unknown task")
	ErrNoStartTask        = errors.New("definition has no task at id 0")
	ErrCyclicDefinition   = errors.New("definition graph contains a cycle")
	ErrDefinitionNotFound = errors.New("process definition not found")
)

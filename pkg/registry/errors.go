package registry

import "errors"

// Sentinel errors for task-type registration and validation.
var (
	ErrAlreadyRegistered = errors.New("task type already registered")
	ErrSchemaInvalid     = errors.New("task type data schema is invalid")
	ErrDataInvalid       = errors.New("task data failed schema validation")
)

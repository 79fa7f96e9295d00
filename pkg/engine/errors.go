package engine

import "errors"

var (
	// ErrDefinitionNotFound is returned when CreateProcessInstance is given
	// a nil definition. A non-nil definition that is not yet registered is
	// registered on the spot instead.
	ErrDefinitionNotFound = errors.New("engine: definition not found")

	// ErrInstanceNotFound is returned when an operation names an instance
	// id that is neither live in the pool nor present in storage.
	ErrInstanceNotFound = errors.New("engine: instance not found")

	// ErrPoolFull is returned by CreateProcessInstance when the live pool
	// is already at config.MaxLiveInstances.
	ErrPoolFull = errors.New("engine: live instance pool is full")
)

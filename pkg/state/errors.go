package state

import "errors"

// Sentinel errors for variable state management.
var ErrKeyNotFound = errors.New("variable not found")

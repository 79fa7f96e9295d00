package observer

import "errors"

// ErrInvalidObserver reports an invalid (nil) observer. Register does not
// return it: Register ignores a nil observer and returns nothing.
var ErrInvalidObserver = errors.New("invalid observer")

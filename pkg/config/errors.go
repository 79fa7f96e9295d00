package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidMaxLiveInstances    = errors.New("invalid max live instances: must be non-negative")
	ErrInvalidMaxNodePoolSize    = errors.New("invalid max node pool size: must be non-negative")
	ErrInvalidPersistTimeout     = errors.New("invalid persist timeout: must be non-negative")
	ErrInvalidCompleteTaskTimeout = errors.New("invalid complete task timeout: must be non-negative")
	ErrInvalidClearPoolInterval  = errors.New("invalid clear pool interval: must be non-negative")

	ErrInvalidHTTPTimeout     = errors.New("invalid HTTP timeout: must be non-negative")
	ErrInvalidMaxRedirects    = errors.New("invalid max redirects: must be non-negative")
	ErrInvalidMaxResponseSize = errors.New("invalid max response size: must be non-negative")
)

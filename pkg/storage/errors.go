package storage

import "errors"

// Sentinel errors for persistence operations.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptRecord    = errors.New("corrupt persisted record")
)

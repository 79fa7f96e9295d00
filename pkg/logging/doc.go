// Package logging provides structured logging capabilities for the stepflow
// process engine.
//
// # Overview
//
// The logging package implements a structured logging system with support
// for multiple output formats, log levels, and contextual information tied
// to the process execution lifecycle: definition id, instance id, task id,
// and task type.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	logger.Info("instance started")
//
// # Context Integration
//
//	logger = logger.WithDefinitionID(def.ID).WithInstanceID(instance.ID)
//	logger.Info("task executing")
//
// # Output Formats
//
// JSON (production, default) and a human-readable text format selected via
// Config.Pretty (development).
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently from
// multiple goroutines without additional synchronization.
package logging

// Package observer provides the Observer pattern implementation for process
// execution monitoring. This allows library consumers to track and monitor
// instance and task lifecycle behavior without coupling the engine itself
// to any particular logging or metrics backend.
package observer

import (
	"context"
	"time"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

// EventType represents the type of execution event.
type EventType string

const (
	// Instance-level events
	EventInstanceStart EventType = "instance_start"
	EventInstanceEnd   EventType = "instance_end"

	// Task-level events
	EventTaskStart   EventType = "task_start"
	EventTaskEnd     EventType = "task_end"
	EventTaskSuccess EventType = "task_success"
	EventTaskFailure EventType = "task_failure"
)

// ExecutionStatus represents the status of a task or instance execution.
type ExecutionStatus string

const (
	StatusStarted   ExecutionStatus = "started"
	StatusSuccess   ExecutionStatus = "success"
	StatusFailure   ExecutionStatus = "failure"
	StatusCompleted ExecutionStatus = "completed"
)

// Event represents an execution event with all relevant metadata.
type Event struct {
	// Event identification
	Type      EventType       `json:"type"`
	Status    ExecutionStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`

	// Execution context
	InstanceID   int    `json:"instance_id"`
	DefinitionID string `json:"definition_id,omitempty"`

	// Task-specific data (empty for instance-level events)
	TaskID   types.TaskID   `json:"task_id,omitempty"`
	TaskName string         `json:"task_name,omitempty"`
	TaskType types.TaskType `json:"task_type,omitempty"`

	// Timing information
	StartTime   time.Time     `json:"start_time,omitempty"`
	ElapsedTime time.Duration `json:"elapsed_time,omitempty"`

	// Execution results
	Result interface{} `json:"result,omitempty"`
	Error  error       `json:"error,omitempty"`

	// Additional metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Observer defines the interface for process execution observers.
// Observers receive notifications about various stages of instance and
// task execution.
type Observer interface {
	// OnEvent is called when an execution event occurs. The context can be
	// used for cancellation and passing request-scoped values.
	OnEvent(ctx context.Context, event Event)
}

// Logger defines the interface for custom logging. This allows library
// consumers to integrate with their own logging systems.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

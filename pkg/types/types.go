// Package types provides shared type definitions for the stepflow process
// engine. All core data structures used across packages are defined here to
// avoid circular dependencies between the definition, registry, node,
// instance and engine packages.
package types

import (
	"context"
	"time"
)

// ============================================================================
// Context Keys
// ============================================================================

type contextKey string

const (
	// ContextKeyInstanceID is the context key for the running instance's id.
	ContextKeyInstanceID contextKey = "instance_id"
	// ContextKeyDefinitionID is the context key for the process definition id.
	ContextKeyDefinitionID contextKey = "definition_id"
)

// GetInstanceID extracts the instance id from context, or 0 if absent.
func GetInstanceID(ctx context.Context) int {
	if id, ok := ctx.Value(ContextKeyInstanceID).(int); ok {
		return id
	}
	return 0
}

// GetDefinitionID extracts the definition id from context, or "" if absent.
func GetDefinitionID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyDefinitionID).(string); ok {
		return id
	}
	return ""
}

// ============================================================================
// Task graph primitives
// ============================================================================

// TaskID is the stable index of a Task within a ProcessDefinition's task
// list. 0 is always the start task.
type TaskID int

// FlowID is the index of a Flow within a ProcessDefinition's flow list.
type FlowID int

// TaskType is the plugin tag a Task is dispatched on (e.g. "start-task",
// "service-task", "decision"). Unregistered tags fall back to the base node.
type TaskType string

// Canonical built-in task types. Any other value is a caller-supplied
// plugin tag.
const (
	TaskTypeStart    TaskType = "start-task"
	TaskTypeEnd      TaskType = "end-task"
	TaskTypeService  TaskType = "service-task"
	TaskTypeDecision TaskType = "decision"
)

// Task is one node in the (external, frozen) process definition graph.
type Task struct {
	ID   TaskID   `json:"id"`
	Name string   `json:"name"`
	Type TaskType `json:"type"`

	// Data is per-task configuration consumed by the task type's plugin
	// (e.g. a webhook URL, a timer duration). The core never interprets it.
	Data map[string]interface{} `json:"data,omitempty"`

	IncomingFlows []FlowID `json:"incoming_flows"`
	OutgoingFlows []FlowID `json:"outgoing_flows"`
}

// Flow is a directed edge in the process definition graph. Condition, when
// non-empty, is an expr-lang boolean expression gating a decision node's
// outgoing flow.
type Flow struct {
	ID        FlowID   `json:"id"`
	From      TaskID   `json:"from"`
	To        TaskID   `json:"to"`
	Condition string   `json:"condition,omitempty"`
}

// ============================================================================
// Process instance primitives
// ============================================================================

// Status is the lifecycle state of a ProcessInstance.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusRunning   Status = "RUNNING"
	StatusWaiting   Status = "WAITING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// NodeEntity is the persisted representation of one live Node inside an
// instance's node pool.
type NodeEntity struct {
	ProcessInstanceID int    `json:"process_instance_id"`
	TaskID            TaskID `json:"task_id"`

	IncomingFlowCompletedNumber uint `json:"incoming_flow_completed_number"`

	// Extra carries subtype-specific state (e.g. a service task's pending
	// marker). Empty/nil for the base node.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// InstanceDocument is the persisted representation of a ProcessInstance,
// written through a storage.Collection.
type InstanceDocument struct {
	PersistenceID string `json:"persistence_id,omitempty"`
	ID            int    `json:"id"`
	DefinitionRef string `json:"definition_ref"`

	Status    Status                 `json:"status"`
	Variables map[string]interface{} `json:"variables"`
	Error     string                 `json:"error,omitempty"`

	NodePool []NodeEntity `json:"node_pool"`

	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

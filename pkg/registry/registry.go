// Package registry implements the task-type registry (spec §4.1): a
// process-wide, read-after-init mapping from a task-type tag to the
// node.Behavior constructor that implements it, plus an optional JSON
// Schema (github.com/xeipuuv/gojsonschema, as the teacher's
// pkg/executor/schema_validator.go validates node data) a task's Data
// must satisfy at definition-build time.
package registry

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// BehaviorFactory constructs the node.Behavior implementing a task type,
// given the task instantiating it.
type BehaviorFactory func(task types.Task) node.Behavior

// Registration describes one task type's entry in the registry.
type Registration struct {
	TaskType types.TaskType
	Factory  BehaviorFactory

	// DataSchema, if set, validates Task.Data at definition-build time.
	// A task type registered without one (the two canonical built-ins)
	// skips validation.
	DataSchema *gojsonschema.Schema

	// Description is a human-readable summary surfaced by
	// Engine.ListTaskTypes() for operator debugging.
	Description string
}

// TaskTypeRegistry is the process-wide task-type mapping. It is safe for
// concurrent registration and lookup, though in practice it is populated
// once at engine construction and read-only thereafter.
type TaskTypeRegistry struct {
	mu            sync.RWMutex
	registrations map[types.TaskType]Registration
}

// New creates an empty registry.
func New() *TaskTypeRegistry {
	return &TaskTypeRegistry{registrations: make(map[types.TaskType]Registration)}
}

// Register adds reg to the registry. Returns ErrAlreadyRegistered if
// reg.TaskType is already registered.
func (r *TaskTypeRegistry) Register(reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[reg.TaskType]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, reg.TaskType)
	}
	r.registrations[reg.TaskType] = reg
	return nil
}

// MustRegister registers reg and panics on error. For use at init time
// where a duplicate registration is a programming error.
func (r *TaskTypeRegistry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

// lookup returns the registration for taskType, if any.
func (r *TaskTypeRegistry) lookup(taskType types.TaskType) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[taskType]
	return reg, ok
}

// CreateNode constructs the node.Node for task inside instance. An
// unregistered task type falls back to node.BaseBehavior (a pass-through),
// per spec §4.1 and §9 — this preserves forward compatibility with old
// persisted instances whose task-type plugin is no longer registered.
func (r *TaskTypeRegistry) CreateNode(task types.Task, instance node.InstanceContext) *node.Node {
	reg, ok := r.lookup(task.Type)
	if !ok {
		instance.Logger().Warn("unregistered task type, falling back to base node")
		return node.New(task, instance, node.BaseBehavior{})
	}
	return node.New(task, instance, reg.Factory(task))
}

// ValidateTaskData validates data against taskType's DataSchema, if one is
// registered. A task type with no schema, or no registration at all,
// skips validation (validation is a registry-level convenience, not a
// core requirement).
func (r *TaskTypeRegistry) ValidateTaskData(taskType types.TaskType, data map[string]interface{}) error {
	reg, ok := r.lookup(taskType)
	if !ok || reg.DataSchema == nil {
		return nil
	}

	result, err := reg.DataSchema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %v", ErrDataInvalid, result.Errors())
	}
	return nil
}

// ListTaskTypes returns every registered task type's tag and description,
// for Engine.ListTaskTypes().
func (r *TaskTypeRegistry) ListTaskTypes() map[types.TaskType]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.TaskType]string, len(r.registrations))
	for taskType, reg := range r.registrations {
		result[taskType] = reg.Description
	}
	return result
}

// Package definition is the process-definition builder DSL: the external
// collaborator spec.md §1 calls out as "builds the static ProcessDefinition
// graph consumed by the engine. Spec treats a definition as a frozen
// graph." Builder constructs that frozen graph, and rejects cyclic task
// graphs at build time per spec.md §9 using pkg/graph's topological sort.
package definition

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yesoreyeram/stepflow/pkg/graph"
	"github.com/yesoreyeram/stepflow/pkg/registry"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// ProcessDefinition is the immutable DAG of tasks and flows an Engine
// executes instances of. Once Build() returns one, it is never mutated.
type ProcessDefinition struct {
	ID   string
	Name string

	Tasks []types.Task
	Flows []types.Flow

	// DefaultVariables seeds a new instance's variables when Start is
	// called without an explicit argument.
	DefaultVariables map[string]interface{}
}

// Task resolves a task id against the definition.
func (d *ProcessDefinition) Task(id types.TaskID) (types.Task, bool) {
	if int(id) < 0 || int(id) >= len(d.Tasks) {
		return types.Task{}, false
	}
	return d.Tasks[id], true
}

// Flow resolves a flow id against the definition.
func (d *ProcessDefinition) Flow(id types.FlowID) (types.Flow, bool) {
	if int(id) < 0 || int(id) >= len(d.Flows) {
		return types.Flow{}, false
	}
	return d.Flows[id], true
}

// Builder incrementally assembles a ProcessDefinition. Task ids are
// assigned in AddTask call order (0 is always the start task, per spec
// §3); flow ids are assigned in Connect call order, which also fixes the
// "declaration order" outgoing flows are processed in (spec §5).
type Builder struct {
	name     string
	registry *registry.TaskTypeRegistry

	tasks            []types.Task
	flows            []types.Flow
	defaultVariables map[string]interface{}

	names map[string]types.TaskID
	err   error
}

// NewBuilder starts a definition named name. reg, if non-nil, is consulted
// to validate each AddTask call's data against the task type's registered
// JSON Schema; pass nil to skip schema validation entirely.
func NewBuilder(name string, reg *registry.TaskTypeRegistry) *Builder {
	return &Builder{name: name, registry: reg, names: make(map[string]types.TaskID)}
}

// AddTask appends a task and returns its id. Errors (duplicate name,
// schema validation failure) are deferred to Build.
func (b *Builder) AddTask(name string, taskType types.TaskType, data map[string]interface{}) types.TaskID {
	id := types.TaskID(len(b.tasks))

	if _, exists := b.names[name]; exists && b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrDuplicateTaskName, name)
	}
	if b.registry != nil && b.err == nil {
		if err := b.registry.ValidateTaskData(taskType, data); err != nil {
			b.err = err
		}
	}

	b.tasks = append(b.tasks, types.Task{ID: id, Name: name, Type: taskType, Data: data})
	b.names[name] = id
	return id
}

// Connect adds a directed flow from one task to another, optionally
// guarded by an expr-lang boolean expression (decision gateways only).
func (b *Builder) Connect(from, to types.TaskID, condition string) types.FlowID {
	id := types.FlowID(len(b.flows))
	b.flows = append(b.flows, types.Flow{ID: id, From: from, To: to, Condition: condition})
	return id
}

// WithDefaultVariables sets the variables a new instance seeds when
// started without an explicit argument.
func (b *Builder) WithDefaultVariables(vars map[string]interface{}) *Builder {
	b.defaultVariables = vars
	return b
}

// Build validates and freezes the definition. It wires each task's
// IncomingFlows/OutgoingFlows from the recorded Connect calls, then
// rejects the graph if it is cyclic (spec §9: "the core is specified for
// DAGs; reject cycles at definition-build time").
func (b *Builder) Build() (*ProcessDefinition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.tasks) == 0 {
		return nil, ErrNoStartTask
	}

	tasks := make([]types.Task, len(b.tasks))
	copy(tasks, b.tasks)

	for _, f := range b.flows {
		if int(f.From) < 0 || int(f.From) >= len(tasks) || int(f.To) < 0 || int(f.To) >= len(tasks) {
			return nil, fmt.Errorf("%w: flow %d", ErrUnknownTask, f.ID)
		}
		tasks[f.From].OutgoingFlows = append(tasks[f.From].OutgoingFlows, f.ID)
		tasks[f.To].IncomingFlows = append(tasks[f.To].IncomingFlows, f.ID)
	}

	g := graph.New(tasks, b.flows)
	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCyclicDefinition, err)
	}

	return &ProcessDefinition{
		ID:               uuid.New().String(),
		Name:             b.name,
		Tasks:            tasks,
		Flows:            b.flows,
		DefaultVariables: b.defaultVariables,
	}, nil
}

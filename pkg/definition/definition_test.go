package definition

import (
	"testing"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

func TestBuilder_LinearDefinition(t *testing.T) {
	b := NewBuilder("linear", nil)
	start := b.AddTask("start", types.TaskTypeStart, nil)
	step := b.AddTask("step", types.TaskTypeService, nil)
	end := b.AddTask("end", types.TaskTypeEnd, nil)
	b.Connect(start, step, "")
	b.Connect(step, end, "")

	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if def.ID == "" {
		t.Error("expected a generated definition id")
	}
	if len(def.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(def.Tasks))
	}
	if len(def.Tasks[0].OutgoingFlows) != 1 {
		t.Errorf("expected start task to have 1 outgoing flow, got %d", len(def.Tasks[0].OutgoingFlows))
	}
	if len(def.Tasks[2].IncomingFlows) != 1 {
		t.Errorf("expected end task to have 1 incoming flow, got %d", len(def.Tasks[2].IncomingFlows))
	}
}

func TestBuilder_DuplicateTaskNameFails(t *testing.T) {
	b := NewBuilder("dup", nil)
	b.AddTask("start", types.TaskTypeStart, nil)
	b.AddTask("start", types.TaskTypeEnd, nil)

	if _, err := b.Build(); err == nil {
		t.Error("expected duplicate task name to fail Build()")
	}
}

func TestBuilder_UnknownFlowTargetFails(t *testing.T) {
	b := NewBuilder("bad-flow", nil)
	start := b.AddTask("start", types.TaskTypeStart, nil)
	b.Connect(start, types.TaskID(99), "")

	if _, err := b.Build(); err == nil {
		t.Error("expected flow to an unknown task to fail Build()")
	}
}

func TestBuilder_CyclicGraphFails(t *testing.T) {
	b := NewBuilder("cycle", nil)
	a := b.AddTask("a", types.TaskTypeStart, nil)
	c := b.AddTask("b", types.TaskTypeService, nil)
	b.Connect(a, c, "")
	b.Connect(c, a, "")

	if _, err := b.Build(); err == nil {
		t.Error("expected cyclic graph to fail Build()")
	}
}

func TestBuilder_EmptyDefinitionFails(t *testing.T) {
	b := NewBuilder("empty", nil)
	if _, err := b.Build(); err == nil {
		t.Error("expected a definition with no tasks to fail Build()")
	}
}

func TestProcessDefinition_TaskAndFlowLookup(t *testing.T) {
	b := NewBuilder("lookup", nil)
	start := b.AddTask("start", types.TaskTypeStart, nil)
	end := b.AddTask("end", types.TaskTypeEnd, nil)
	b.Connect(start, end, "")
	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, ok := def.Task(types.TaskID(0)); !ok {
		t.Error("expected task 0 to be found")
	}
	if _, ok := def.Task(types.TaskID(99)); ok {
		t.Error("expected unknown task id to not be found")
	}
	if _, ok := def.Flow(types.FlowID(0)); !ok {
		t.Error("expected flow 0 to be found")
	}
	if _, ok := def.Flow(types.FlowID(99)); ok {
		t.Error("expected unknown flow id to not be found")
	}
}

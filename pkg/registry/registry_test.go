package registry

import (
	"testing"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

type noopLogger struct{}

func (noopLogger) Warn(string) {}

// stubInstance satisfies node.InstanceContext with no-ops, enough to
// exercise TaskTypeRegistry.CreateNode without a real ProcessInstance.
type stubInstance struct{}

func (stubInstance) Task(types.TaskID) (types.Task, bool) { return types.Task{}, false }
func (stubInstance) Flow(types.FlowID) (types.Flow, bool) { return types.Flow{}, false }
func (stubInstance) Variables() map[string]interface{}    { return nil }
func (stubInstance) ReplaceVariables(map[string]interface{}) {}
func (stubInstance) EmitBefore(types.Task)                {}
func (stubInstance) EmitAfter(types.Task)                 {}
func (stubInstance) EmitEnd()                             {}
func (stubInstance) Fail(error)                              {}
func (stubInstance) Suspend(types.TaskType) error            { return nil }
func (stubInstance) Complete()                            {}
func (stubInstance) IsWaiting() bool                       { return false }
func (stubInstance) Persist() error                        { return nil }
func (stubInstance) GetOrCreateNode(types.TaskID) (*node.Node, error) { return nil, nil }
func (stubInstance) RemoveNode(types.TaskID)                {}
func (stubInstance) Logger() node.Logger                    { return noopLogger{} }

func TestRegistry_RegisterAndCreateNode(t *testing.T) {
	r := New()
	r.MustRegister(Registration{
		TaskType: types.TaskTypeDecision,
		Factory: func(types.Task) node.Behavior {
			return node.DecisionBehavior{}
		},
		Description: "decision gateway",
	})

	task := types.Task{ID: 1, Type: types.TaskTypeDecision}
	n := r.CreateNode(task, stubInstance{})
	if n == nil {
		t.Fatal("expected a node to be created")
	}
	if n.Task().ID != task.ID {
		t.Errorf("expected node for task %d, got %d", task.ID, n.Task().ID)
	}
}

func TestRegistry_UnknownTypeFallsBackToBase(t *testing.T) {
	r := New()
	task := types.Task{ID: 1, Type: types.TaskType("custom-unregistered")}

	n := r.CreateNode(task, stubInstance{})
	if n == nil {
		t.Fatal("expected fallback base node to be created")
	}
}

func TestRegistry_DuplicateRegistrationFails(t *testing.T) {
	r := New()
	reg := Registration{TaskType: types.TaskTypeService, Factory: func(types.Task) node.Behavior { return node.ServiceTaskBehavior{} }}

	if err := r.Register(reg); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := r.Register(reg); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := New()
	reg := Registration{TaskType: types.TaskTypeService, Factory: func(types.Task) node.Behavior { return node.ServiceTaskBehavior{} }}
	r.MustRegister(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected MustRegister to panic on duplicate")
		}
	}()
	r.MustRegister(reg)
}

func TestRegistry_ValidateTaskData(t *testing.T) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(`{
		"type": "object",
		"required": ["url"],
		"properties": {"url": {"type": "string"}}
	}`))
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}

	r := New()
	r.MustRegister(Registration{
		TaskType:   types.TaskType("webhook"),
		Factory:    func(types.Task) node.Behavior { return node.ServiceTaskBehavior{} },
		DataSchema: schema,
	})

	t.Run("valid data", func(t *testing.T) {
		if err := r.ValidateTaskData(types.TaskType("webhook"), map[string]interface{}{"url": "https://example.com"}); err != nil {
			t.Errorf("expected valid data to pass, got %v", err)
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		if err := r.ValidateTaskData(types.TaskType("webhook"), map[string]interface{}{}); err == nil {
			t.Error("expected missing required field to fail validation")
		}
	})

	t.Run("no schema registered skips validation", func(t *testing.T) {
		if err := r.ValidateTaskData(types.TaskTypeStart, map[string]interface{}{"anything": true}); err != nil {
			t.Errorf("expected no-schema task type to skip validation, got %v", err)
		}
	})
}

func TestRegistry_ListTaskTypes(t *testing.T) {
	r := New()
	r.MustRegister(Registration{TaskType: types.TaskTypeStart, Factory: func(types.Task) node.Behavior { return node.BaseBehavior{} }, Description: "start"})
	r.MustRegister(Registration{TaskType: types.TaskTypeEnd, Factory: func(types.Task) node.Behavior { return node.BaseBehavior{} }, Description: "end"})

	types_ := r.ListTaskTypes()
	if len(types_) != 2 {
		t.Errorf("expected 2 registered types, got %d", len(types_))
	}
}

package tasklib

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yesoreyeram/stepflow/pkg/config"
	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

type noopLogger struct{}

func (noopLogger) Warn(string) {}

// fakeInstance is a minimal node.InstanceContext double, enough to drive a
// single node in isolation without pkg/instance.
type fakeInstance struct {
	mu        sync.Mutex
	task      types.Task
	variables map[string]interface{}
	waiting   bool
	completed bool
	failed    error
}

func (f *fakeInstance) Task(id types.TaskID) (types.Task, bool) {
	if id == f.task.ID {
		return f.task, true
	}
	return types.Task{}, false
}
func (f *fakeInstance) Flow(types.FlowID) (types.Flow, bool) { return types.Flow{}, false }
func (f *fakeInstance) Variables() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[string]interface{}, len(f.variables))
	for k, v := range f.variables {
		copied[k] = v
	}
	return copied
}
func (f *fakeInstance) ReplaceVariables(vars map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variables = vars
}
func (f *fakeInstance) EmitBefore(types.Task) {}
func (f *fakeInstance) EmitAfter(types.Task)  {}
func (f *fakeInstance) EmitEnd()              {}
func (f *fakeInstance) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = err
}
func (f *fakeInstance) Suspend(types.TaskType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waiting = true
	return nil
}
func (f *fakeInstance) Complete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = true
}
func (f *fakeInstance) IsWaiting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}
func (f *fakeInstance) Persist() error                                { return nil }
func (f *fakeInstance) GetOrCreateNode(types.TaskID) (*node.Node, error) { return nil, nil }
func (f *fakeInstance) RemoveNode(types.TaskID)                       {}
func (f *fakeInstance) Logger() node.Logger                           { return noopLogger{} }

func TestTimerBehavior_SelfCompletesAfterDuration(t *testing.T) {
	inst := &fakeInstance{task: types.Task{ID: 0, Type: types.TaskType("timer-task")}, variables: map[string]interface{}{}}
	n := node.New(inst.task, inst, TimerBehavior{Default: 10 * time.Millisecond})

	n.Execute()
	if !inst.waiting {
		t.Fatal("expected the instance to suspend immediately on entry")
	}

	deadline := time.After(2 * time.Second)
	for !inst.completed {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the timer to self-complete")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestWebhookBehavior_FiresPOSTThenSuspends(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Testing()
	behavior := NewWebhookBehavior(cfg, nil)

	task := types.Task{ID: 0, Type: types.TaskType("webhook-task"), Data: map[string]interface{}{"url": srv.URL}}
	inst := &fakeInstance{task: task, variables: map[string]interface{}{"order_id": "abc123"}}
	n := node.New(task, inst, behavior)

	n.Execute()
	if !inst.waiting {
		t.Fatal("expected the webhook task to suspend the instance immediately")
	}

	select {
	case body := <-received:
		if body["order_id"] != "abc123" {
			t.Errorf("expected instance variables forwarded as the POST body, got %v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the webhook POST")
	}

	if inst.completed {
		t.Error("the webhook POST's response must not complete the node; only completeTask may")
	}
}

func TestWebhookBehavior_RejectsDisallowedURL(t *testing.T) {
	cfg := config.Default() // HTTPS only, no private IPs — http://127.0.0.1 fails both
	behavior := NewWebhookBehavior(cfg, nil)

	task := types.Task{ID: 0, Type: types.TaskType("webhook-task"), Data: map[string]interface{}{"url": "http://127.0.0.1:1/hook"}}
	inst := &fakeInstance{task: task, variables: map[string]interface{}{}}
	n := node.New(task, inst, behavior)

	n.Execute()

	if inst.waiting {
		t.Error("expected SSRF validation to reject the URL before suspending")
	}
	if inst.failed == nil {
		t.Error("expected the instance to fail when the webhook URL is disallowed")
	}
}

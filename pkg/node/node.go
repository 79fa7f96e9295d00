// Package node implements the runtime instantiation of a process
// definition's Task inside one running Process Instance: the token
// propagation algorithm (spec §4.2), and the three concrete task-type
// kinds (base pass-through, service-task, decision) dispatched through a
// small Behavior capability set rather than class inheritance, per the
// "polymorphic node" design note.
package node

import (
	"sync"

	"github.com/yesoreyeram/stepflow/pkg/types"
)

// CompleteFunc is the one-shot continuation a Behavior must eventually
// invoke exactly once, with either an error or a replacement variables
// snapshot (nil variables leaves the instance's variables untouched).
type CompleteFunc func(err error, variables map[string]interface{})

// Behavior is the capability set a task-type plugin overrides. BaseBehavior
// provides pass-through defaults; a plugin embeds it and overrides only
// the hooks it needs.
type Behavior interface {
	// ExecuteInternal runs when the node becomes eligible. It must
	// eventually call complete exactly once, synchronously or later from
	// another goroutine.
	ExecuteInternal(n *Node, complete CompleteFunc)

	// CanFollowOutgoingFlow reports whether flow should be followed once
	// the node completes. Only decision nodes return false for any flow.
	CanFollowOutgoingFlow(n *Node, flow types.Flow) bool

	// SerializeExtra returns subtype-specific state to persist alongside
	// the base node fields, or nil if there is none.
	SerializeExtra(n *Node) map[string]interface{}

	// DeserializeExtra restores subtype-specific state from a persisted
	// NodeEntity.Extra map.
	DeserializeExtra(n *Node, extra map[string]interface{})
}

// BaseBehavior implements Behavior as a synchronous pass-through. Embed it
// in a custom Behavior to inherit the defaults for hooks you don't need to
// override.
type BaseBehavior struct{}

func (BaseBehavior) ExecuteInternal(_ *Node, complete CompleteFunc) { complete(nil, nil) }
func (BaseBehavior) CanFollowOutgoingFlow(_ *Node, _ types.Flow) bool { return true }
func (BaseBehavior) SerializeExtra(_ *Node) map[string]interface{}   { return nil }
func (BaseBehavior) DeserializeExtra(_ *Node, _ map[string]interface{}) {}

// Logger is the minimal logging capability Node needs from its owning
// instance, satisfied by *logging.Logger without this package importing it.
type Logger interface {
	Warn(msg string)
}

// InstanceContext is the non-owning view of a Process Instance a Node
// needs to participate in token propagation. pkg/instance's
// ProcessInstance implements this; pkg/node never imports pkg/instance,
// avoiding an import cycle.
type InstanceContext interface {
	// Task resolves a task id against the instance's frozen definition.
	Task(id types.TaskID) (types.Task, bool)
	// Flow resolves a flow id against the instance's frozen definition.
	Flow(id types.FlowID) (types.Flow, bool)

	// Variables returns a deep-copied snapshot of the instance's variables.
	Variables() map[string]interface{}
	// ReplaceVariables atomically replaces the instance's variables with a
	// deep copy of vars.
	ReplaceVariables(vars map[string]interface{})

	EmitBefore(task types.Task)
	EmitAfter(task types.Task)
	EmitEnd()

	// Fail transitions the instance to FAILED with err, and persists.
	Fail(err error)
	// Suspend transitions the instance to WAITING, and persists. taskType
	// is passed through only for suspend-count metrics labeling.
	Suspend(taskType types.TaskType) error
	// Complete transitions the instance to COMPLETED, and persists.
	Complete()
	// IsWaiting reports whether the instance is currently WAITING.
	IsWaiting() bool
	// Persist writes the instance's current state through the storage
	// collection.
	Persist() error

	// GetOrCreateNode returns the live node for taskID, constructing and
	// registering one via the task-type registry if none exists yet.
	GetOrCreateNode(taskID types.TaskID) (*Node, error)
	// RemoveNode deletes taskID's node from the live pool.
	RemoveNode(taskID types.TaskID)

	Logger() Logger
}

// Node is the runtime instantiation of one Task inside one Instance.
// Behavior is swapped in per task type; Node itself owns only the shared
// bookkeeping spec §3 specifies for every kind: the AND-join counter and
// completion idempotency.
type Node struct {
	task     types.Task
	instance InstanceContext
	behavior Behavior

	mu                          sync.Mutex
	incomingFlowCompletedNumber uint
	completed                   bool
}

// New constructs a live Node for task inside instance, using behavior to
// implement the task type's dispatch.
func New(task types.Task, instance InstanceContext, behavior Behavior) *Node {
	return &Node{task: task, instance: instance, behavior: behavior}
}

// Task returns the task this node instantiates.
func (n *Node) Task() types.Task {
	return n.task
}

// Variables returns a snapshot of the owning instance's variables, for
// Behavior implementations that live outside this package (pkg/tasklib).
func (n *Node) Variables() map[string]interface{} {
	return n.instance.Variables()
}

// Suspend transitions the owning instance to WAITING on this node's task
// type, for out-of-package async Behavior implementations.
func (n *Node) Suspend() error {
	return n.instance.Suspend(n.task.Type)
}

// Logger returns the owning instance's logger, for out-of-package Behavior
// implementations that want to report handler-level failures.
func (n *Node) Logger() Logger {
	return n.instance.Logger()
}

// IncrementIncomingFlow records one more AND-join arrival.
func (n *Node) IncrementIncomingFlow() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.incomingFlowCompletedNumber++
}

// CanExecuteNode reports whether every incoming flow has arrived.
func (n *Node) CanExecuteNode() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.incomingFlowCompletedNumber == uint(len(n.task.IncomingFlows))
}

// CanFollowOutgoingFlow delegates to the node's behavior.
func (n *Node) CanFollowOutgoingFlow(flow types.Flow) bool {
	return n.behavior.CanFollowOutgoingFlow(n, flow)
}

// Execute emits before(task) and runs the behavior's entry hook.
func (n *Node) Execute() {
	n.instance.EmitBefore(n.task)
	n.behavior.ExecuteInternal(n, n.Complete)
}

// Complete is the token-propagation routine (spec §4.2). It is safe to
// call from any goroutine; only the first call has effect, satisfying the
// service-task idempotency requirement (spec §4.3) for every node kind.
func (n *Node) Complete(err error, variables map[string]interface{}) {
	n.mu.Lock()
	if n.completed {
		n.mu.Unlock()
		n.instance.Logger().Warn("duplicate node completion ignored")
		return
	}
	n.completed = true
	n.mu.Unlock()

	if err != nil {
		n.instance.Fail(err)
		n.instance.EmitEnd()
		return
	}

	if variables != nil {
		n.instance.ReplaceVariables(variables)
	}

	n.instance.EmitAfter(n.task)
	n.instance.RemoveNode(n.task.ID)

	for _, flowID := range n.task.OutgoingFlows {
		flow, ok := n.instance.Flow(flowID)
		if !ok {
			continue
		}
		if !n.CanFollowOutgoingFlow(flow) {
			continue
		}

		successor, err := n.instance.GetOrCreateNode(flow.To)
		if err != nil {
			n.instance.Fail(err)
			n.instance.EmitEnd()
			return
		}
		successor.IncrementIncomingFlow()

		if successor.CanExecuteNode() {
			successor.Execute()
		} else if n.instance.IsWaiting() {
			_ = n.instance.Persist()
		}
	}

	if n.task.Type == types.TaskTypeEnd {
		n.instance.Complete()
		n.instance.EmitEnd()
	}
}

// Serialize returns the persistable representation of this node's shared
// state plus any behavior-specific extra state.
func (n *Node) Serialize() types.NodeEntity {
	n.mu.Lock()
	count := n.incomingFlowCompletedNumber
	n.mu.Unlock()

	return types.NodeEntity{
		TaskID:                      n.task.ID,
		IncomingFlowCompletedNumber: count,
		Extra:                       n.behavior.SerializeExtra(n),
	}
}

// Deserialize restores a node's counters and behavior-specific state from
// a persisted NodeEntity. It does not execute the node.
func (n *Node) Deserialize(entity types.NodeEntity) {
	n.mu.Lock()
	n.incomingFlowCompletedNumber = entity.IncomingFlowCompletedNumber
	n.mu.Unlock()
	n.behavior.DeserializeExtra(n, entity.Extra)
}

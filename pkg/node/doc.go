// Package node implements the token-propagation algorithm described in
// spec.md §4.2: a Node holds the shared AND-join counter and completion
// idempotency every task type needs, dispatching task-type-specific
// behavior (synchronous pass-through, async service task, decision
// gateway) through the small Behavior capability set rather than
// inheritance, per the "polymorphic node" design note in spec.md §9.
//
// # Usage
//
//	n := node.New(task, instanceCtx, node.BaseBehavior{})
//	n.Execute()
//
// Custom task types embed node.BaseBehavior and override only the hooks
// they need; pkg/tasklib's timer and webhook plugins do this.
package node

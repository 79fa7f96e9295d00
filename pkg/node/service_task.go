package node

// ServiceTaskBehavior is the canonical async task type (spec §4.3): on
// entry it suspends the owning instance pending an external
// Engine.CompleteTask call, rather than completing synchronously.
type ServiceTaskBehavior struct {
	BaseBehavior
}

// ExecuteInternal suspends the instance and persists the partial state.
// It deliberately never calls complete — the instance's node stays live in
// the pool until something else (Engine.CompleteTask) invokes
// Node.Complete directly.
func (ServiceTaskBehavior) ExecuteInternal(n *Node, complete CompleteFunc) {
	if err := n.instance.Suspend(n.task.Type); err != nil {
		complete(err, nil)
	}
}

func (ServiceTaskBehavior) SerializeExtra(_ *Node) map[string]interface{} {
	return map[string]interface{}{"pending": true}
}

func (ServiceTaskBehavior) DeserializeExtra(_ *Node, _ map[string]interface{}) {
	// Reconstruction alone doesn't re-suspend the instance; a service task
	// node found in a reloaded instance's pool is pending by construction.
}

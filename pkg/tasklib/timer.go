package tasklib

import (
	"time"

	"github.com/yesoreyeram/stepflow/pkg/node"
)

// TimerBehavior is a service-task variant that suspends the instance like
// any other async task, then completes itself after a fixed delay via
// time.AfterFunc — a deadline task needs no external caller at all.
//
// Task.Data["duration_ms"] overrides Default when present.
type TimerBehavior struct {
	node.BaseBehavior
	Default time.Duration
}

func (b TimerBehavior) ExecuteInternal(n *node.Node, complete node.CompleteFunc) {
	dur := b.Default
	if ms, ok := n.Task().Data["duration_ms"].(float64); ok {
		dur = time.Duration(ms) * time.Millisecond
	}

	if err := n.Suspend(); err != nil {
		complete(err, nil)
		return
	}
	time.AfterFunc(dur, func() { n.Complete(nil, nil) })
}

func (TimerBehavior) SerializeExtra(_ *node.Node) map[string]interface{} {
	return map[string]interface{}{"pending": true}
}

// DeserializeExtra cannot re-arm the timer: the in-process time.AfterFunc
// is lost across a restart. A reloaded timer node stays pending forever
// unless something external drives it via Engine.CompleteTask.
func (TimerBehavior) DeserializeExtra(n *node.Node, _ map[string]interface{}) {
	n.Logger().Warn("timer task reloaded from persistence will not self-complete; its deadline was lost")
}

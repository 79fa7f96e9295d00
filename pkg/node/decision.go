package node

import (
	"github.com/yesoreyeram/stepflow/pkg/types"
)

// ConditionEvaluator evaluates a decision gateway's flow guard against an
// instance's variables snapshot. pkg/expression's Evaluator implements
// this; pkg/node depends only on the narrow interface it needs.
type ConditionEvaluator interface {
	EvaluateBoolean(expression string, variables map[string]interface{}) (bool, error)
}

// DecisionBehavior is the decision-gateway task type (spec §4.4): it
// follows only the outgoing flows whose guard expression evaluates true
// against the instance's current variables. A flow with an empty
// condition is always followed. Zero matching flows leaves that branch
// stalled, by design (spec §9 open question).
type DecisionBehavior struct {
	BaseBehavior
	Evaluator ConditionEvaluator
}

func (d DecisionBehavior) CanFollowOutgoingFlow(n *Node, flow types.Flow) bool {
	if flow.Condition == "" {
		return true
	}
	result, err := d.Evaluator.EvaluateBoolean(flow.Condition, n.instance.Variables())
	if err != nil {
		n.instance.Logger().Warn("decision guard evaluation failed, treating flow as not followed")
		return false
	}
	return result
}

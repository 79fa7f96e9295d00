// Package instance implements the Process Instance: one execution of a
// ProcessDefinition, its live node pool, variables, lifecycle status, and
// persistence.
//
// # Usage
//
//	inst, err := instance.New(1, def, instance.Deps{Registry: reg, Collection: coll})
//	err = inst.Start(map[string]interface{}{"x": 1})
//	err = inst.CompleteTask(svcTaskID, map[string]interface{}{"x": 2})
package instance

// Package registry implements the process-wide task-type registry.
//
// # Usage
//
//	reg := registry.New()
//	reg.MustRegister(registry.Registration{
//		TaskType: types.TaskTypeService,
//		Factory:  func(types.Task) node.Behavior { return node.ServiceTaskBehavior{} },
//	})
//
//	n := reg.CreateNode(task, instanceCtx)
package registry

// Package engine ties together pkg/definition, pkg/registry, pkg/instance
// and pkg/storage into the external surface a caller drives a process
// through: register a definition, create an instance, resume it across
// restarts, and query or sweep the live pool.
//
// # Usage
//
//	reg := engine.DefaultRegistry()
//	reg.MustRegister(registry.Registration{TaskType: "service-task", Factory: ...})
//	eng, err := engine.New(engine.Deps{Registry: reg, Collection: storage.NewInMemoryCollection()})
//	eng.RegisterDefinition(def)
//	inst, err := eng.CreateProcessInstance(def)
//	err = inst.Start(map[string]interface{}{"x": 1})
//	err = eng.CompleteTask(inst.ID(), svcTaskID, map[string]interface{}{"x": 2})
package engine

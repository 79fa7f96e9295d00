// Package definition provides the Builder DSL used to construct the frozen
// ProcessDefinition graph an Engine executes instances of.
//
// # Usage
//
//	b := definition.NewBuilder("order-fulfillment", reg)
//	start := b.AddTask("start", types.TaskTypeStart, nil)
//	ship := b.AddTask("ship", types.TaskTypeService, map[string]interface{}{"carrier": "ups"})
//	end := b.AddTask("end", types.TaskTypeEnd, nil)
//	b.Connect(start, ship, "")
//	b.Connect(ship, end, "")
//	def, err := b.Build()
package definition

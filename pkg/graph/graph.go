// Package graph provides DAG validation for process definitions: cycle
// detection via Kahn's algorithm, used by the definition builder to reject
// cyclic task graphs at build time (the core engine is specified for DAGs
// only).
package graph

import "github.com/yesoreyeram/stepflow/pkg/types"

// Graph is a lightweight view over a definition's tasks and flows, used
// only for structural validation before a ProcessDefinition is frozen.
type Graph struct {
	tasks []types.Task
	flows []types.Flow
}

// New creates a Graph from the given tasks and flows.
func New(tasks []types.Task, flows []types.Flow) *Graph {
	return &Graph{tasks: tasks, flows: flows}
}

// TopologicalSort orders task ids using Kahn's algorithm. Returns
// ErrCycleDetected if the graph contains a cycle.
//
// Orphan tasks (no incoming flows) are visited in ascending id order so
// that builds are deterministic regardless of map iteration order.
func (g *Graph) TopologicalSort() ([]types.TaskID, error) {
	n := len(g.tasks)
	if n == 0 {
		return []types.TaskID{}, nil
	}

	inDegree := make(map[types.TaskID]int, n)
	adjacency := make(map[types.TaskID][]types.TaskID, n)

	for _, t := range g.tasks {
		inDegree[t.ID] = 0
	}
	for _, f := range g.flows {
		adjacency[f.From] = append(adjacency[f.From], f.To)
		inDegree[f.To]++
	}

	queue := make([]types.TaskID, 0, n)
	for _, t := range g.tasks {
		if inDegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}
	insertionSort(queue)

	order := make([]types.TaskID, 0, n)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		neighbors := adjacency[current]
		ready := make([]types.TaskID, 0, len(neighbors))
		for _, next := range neighbors {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
		insertionSort(ready)
		queue = append(queue, ready...)
	}

	if len(order) != n {
		return nil, ErrCycleDetected
	}
	return order, nil
}

// DetectCycles reports whether the graph contains a cycle.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}

// insertionSort sorts task ids in place. Faster than sort.Slice for the
// small orphan/ready sets a single round of Kahn's algorithm produces.
func insertionSort(ids []types.TaskID) {
	for i := 1; i < len(ids); i++ {
		key := ids[i]
		j := i - 1
		for j >= 0 && ids[j] > key {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = key
	}
}

// GetTerminalTasks returns the ids of all tasks with no outgoing flow.
func (g *Graph) GetTerminalTasks() []types.TaskID {
	terminal := make(map[types.TaskID]bool, len(g.tasks))
	for _, t := range g.tasks {
		terminal[t.ID] = true
	}
	for _, f := range g.flows {
		terminal[f.From] = false
	}

	result := make([]types.TaskID, 0)
	for _, t := range g.tasks {
		if terminal[t.ID] {
			result = append(result, t.ID)
		}
	}
	return result
}

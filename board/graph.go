package board

import (
	"fmt"
)

// DependencyGraph indexes a board's parent links for whole-board checks.
// It is built at ingest time to verify the task graph is acyclic and to
// order derived-status recomputation parents-first. The engine runs on a
// single logical thread per snapshot, so the graph carries no locking.
type DependencyGraph struct {
	tasks      map[string]*Task
	inDegree   map[string]int      // Number of unmet dependencies
	dependents map[string][]string // Tasks that depend on this task
}

// NewDependencyGraph builds a dependency graph from the tasks' parent
// links. It fails when a parent reference names an unknown task or when
// the links form a cycle.
func NewDependencyGraph(tasks []Task) (*DependencyGraph, error) {
	g := &DependencyGraph{
		tasks:      make(map[string]*Task),
		inDegree:   make(map[string]int),
		dependents: make(map[string][]string),
	}

	for i := range tasks {
		t := &tasks[i]
		g.tasks[t.ID] = t
		g.inDegree[t.ID] = 0
		g.dependents[t.ID] = nil
	}

	for _, t := range tasks {
		if t.ParentID == nil {
			continue
		}
		parentID := *t.ParentID
		if _, exists := g.tasks[parentID]; !exists {
			return nil, fmt.Errorf("task %s depends on non-existent task %s", t.ID, parentID)
		}
		g.inDegree[t.ID]++
		g.dependents[parentID] = append(g.dependents[parentID], t.ID)
	}

	if err := g.detectCycles(); err != nil {
		return nil, err
	}

	return g, nil
}

// detectCycles uses Kahn's algorithm to detect cycles in the parent links.
func (g *DependencyGraph) detectCycles() error {
	tempDegree := make(map[string]int)
	for id, deg := range g.inDegree {
		tempDegree[id] = deg
	}

	var queue []string
	for id, deg := range tempDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		taskID := queue[0]
		queue = queue[1:]
		processed++

		for _, depID := range g.dependents[taskID] {
			tempDegree[depID]--
			if tempDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if processed != len(g.tasks) {
		return fmt.Errorf("circular dependency detected: %d tasks could not be ordered", len(g.tasks)-processed)
	}

	return nil
}

// TopologicalOrder returns the tasks parents-first. Recomputing derived
// dependency state in this order guarantees every parent is settled before
// its children are examined.
func (g *DependencyGraph) TopologicalOrder() []*Task {
	tempDegree := make(map[string]int)
	for id, deg := range g.inDegree {
		tempDegree[id] = deg
	}

	var order []*Task
	var queue []string

	for id, deg := range tempDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		taskID := queue[0]
		queue = queue[1:]
		order = append(order, g.tasks[taskID])

		for _, depID := range g.dependents[taskID] {
			tempDegree[depID]--
			if tempDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	return order
}

// Children returns the IDs of the tasks that directly depend on taskID.
func (g *DependencyGraph) Children(taskID string) []string {
	return append([]string(nil), g.dependents[taskID]...)
}

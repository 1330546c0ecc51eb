package board

import (
	"fmt"
)

// CycleError reports a dependency link that would make the task graph
// cyclic. The command is rejected and the board is left unchanged.
type CycleError struct {
	// TaskID is the task whose parent was being set.
	TaskID string

	// ParentID is the rejected parent candidate.
	ParentID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("task %s cannot depend on %s: dependency would create a cycle", e.TaskID, e.ParentID)
}

// SetDependency links a task to a parent it depends on. The link is
// rejected with a CycleError when the candidate is the task itself or
// already transitively depends on it; the task graph stays a DAG. On
// success the task's dependency status reflects the parent's current
// completion state.
func SetDependency(b *Board, taskID, parentID string) error {
	task := b.Task(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	parent := b.Task(parentID)
	if parent == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, parentID)
	}

	if parentID == taskID || dependsOn(b, parentID, taskID) {
		return &CycleError{TaskID: taskID, ParentID: parentID}
	}

	task.ParentID = &parentID
	task.DependencyStatus = dependencyStatusFor(b, task)
	parent.HasChildren = true
	return nil
}

// RemoveDependency clears a task's parent link and returns it to the
// independent state. The former parent's HasChildren flag is rederived.
func RemoveDependency(b *Board, taskID string) error {
	task := b.Task(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	former := task.ParentID
	task.ParentID = nil
	task.DependencyStatus = DependencyIndependent

	if former != nil {
		if parent := b.Task(*former); parent != nil {
			parent.HasChildren = len(Children(b, parent.ID)) > 0
		}
	}
	return nil
}

// OnParentStatusChanged recomputes the dependency status of every direct
// child of the given task. Propagation is one level deep: a child's own
// completion does not depend on grandparent state, so grandchildren are
// not touched.
func OnParentStatusChanged(b *Board, parentID string) {
	for _, child := range Children(b, parentID) {
		child.DependencyStatus = dependencyStatusFor(b, child)
	}
}

// Children returns all tasks whose parent is the given task.
func Children(b *Board, taskID string) []*Task {
	var children []*Task
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if t.ParentID != nil && *t.ParentID == taskID {
			children = append(children, t)
		}
	}
	return children
}

// dependencyStatusFor derives a task's dependency status from its parent's
// current completion state.
func dependencyStatusFor(b *Board, t *Task) DependencyStatus {
	if t.ParentID == nil {
		return DependencyIndependent
	}
	parent := b.Task(*t.ParentID)
	if parent == nil {
		// Dangling parent reference; ingest severs these, but a
		// snapshot assembled by hand may still carry one.
		return DependencyIndependent
	}
	if b.IsDone(parent) {
		return DependencyReady
	}
	return DependencyBlocked
}

// dependsOn reports whether task taskID transitively depends on ancestorID
// by walking the parent chain. The walk is bounded by the task count so a
// malformed cyclic snapshot cannot loop forever.
func dependsOn(b *Board, taskID, ancestorID string) bool {
	current := b.Task(taskID)
	for steps := 0; current != nil && current.ParentID != nil && steps <= len(b.Tasks); steps++ {
		if *current.ParentID == ancestorID {
			return true
		}
		current = b.Task(*current.ParentID)
	}
	return false
}

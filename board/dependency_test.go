package board

import (
	"errors"
	"testing"
)

func TestSetDependency_BlockedWhileParentInProgress(t *testing.T) {
	b := testBoard(t, 2)
	b.Task(taskID(0)).Status = TaskStatusInProgress

	if err := SetDependency(b, taskID(1), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	child := b.Task(taskID(1))
	if child.ParentID == nil || *child.ParentID != taskID(0) {
		t.Fatal("parent link not set")
	}
	if child.DependencyStatus != DependencyBlocked {
		t.Errorf("status = %s, want %s", child.DependencyStatus, DependencyBlocked)
	}
	if !b.Task(taskID(0)).HasChildren {
		t.Error("parent HasChildren not derived")
	}
}

func TestSetDependency_ReadyWhenParentAlreadyDone(t *testing.T) {
	b := testBoard(t, 2)
	b.Task(taskID(0)).Status = TaskStatusCompleted

	if err := SetDependency(b, taskID(1), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.Task(taskID(1)).DependencyStatus; got != DependencyReady {
		t.Errorf("status = %s, want %s", got, DependencyReady)
	}
}

func TestSetDependency_RejectsCycle(t *testing.T) {
	// setDependency(A, B) then setDependency(B, A): second call fails,
	// A's parent remains B, B's parent remains unset.
	b := testBoard(t, 2)
	a, bID := taskID(0), taskID(1)

	if err := SetDependency(b, a, bID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := SetDependency(b, bID, a)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	if got := b.Task(a).ParentID; got == nil || *got != bID {
		t.Error("A's parent changed by rejected command")
	}
	if b.Task(bID).ParentID != nil {
		t.Error("B's parent set by rejected command")
	}
}

func TestSetDependency_RejectsSelf(t *testing.T) {
	b := testBoard(t, 1)

	err := SetDependency(b, taskID(0), taskID(0))
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestSetDependency_RejectsTransitiveCycle(t *testing.T) {
	b := testBoard(t, 3)

	if err := SetDependency(b, taskID(1), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SetDependency(b, taskID(2), taskID(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0 <- 1 <- 2; linking 0 under 2 closes the loop.
	var cycleErr *CycleError
	if err := SetDependency(b, taskID(0), taskID(2)); !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestRemoveDependency(t *testing.T) {
	b := testBoard(t, 2)
	if err := SetDependency(b, taskID(1), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := RemoveDependency(b, taskID(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	child := b.Task(taskID(1))
	if child.ParentID != nil {
		t.Error("parent link not cleared")
	}
	if child.DependencyStatus != DependencyIndependent {
		t.Errorf("status = %s, want %s", child.DependencyStatus, DependencyIndependent)
	}
	if b.Task(taskID(0)).HasChildren {
		t.Error("former parent still marked HasChildren")
	}
}

func TestOnParentStatusChanged_UnblocksChild(t *testing.T) {
	// Parent in_progress, child blocked. Parent moves to a completion
	// column; child recomputes to ready.
	b := testBoard(t, 2)
	parent, child := taskID(0), taskID(1)
	b.Task(parent).Status = TaskStatusInProgress

	if err := SetDependency(b, child, parent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.Task(child).DependencyStatus; got != DependencyBlocked {
		t.Fatalf("precondition: status = %s, want %s", got, DependencyBlocked)
	}

	if err := MoveAcrossColumns(b, parent, "col-done", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	OnParentStatusChanged(b, parent)

	if got := b.Task(child).DependencyStatus; got != DependencyReady {
		t.Errorf("status = %s, want %s", got, DependencyReady)
	}
}

func TestOnParentStatusChanged_ReblocksOnReopen(t *testing.T) {
	b := testBoard(t, 2)
	parent, child := taskID(0), taskID(1)
	b.Task(parent).Status = TaskStatusCompleted
	if err := SetDependency(b, child, parent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.Task(parent).Status = TaskStatusInProgress
	OnParentStatusChanged(b, parent)

	if got := b.Task(child).DependencyStatus; got != DependencyBlocked {
		t.Errorf("status = %s, want %s", got, DependencyBlocked)
	}
}

func TestOnParentStatusChanged_OneLevelOnly(t *testing.T) {
	// 0 <- 1 <- 2. Completing 0 recomputes 1 but must not touch 2:
	// a child's own completion does not depend on grandparent state.
	b := testBoard(t, 3)
	if err := SetDependency(b, taskID(1), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SetDependency(b, taskID(2), taskID(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.Task(taskID(0)).Status = TaskStatusCompleted
	OnParentStatusChanged(b, taskID(0))

	if got := b.Task(taskID(1)).DependencyStatus; got != DependencyReady {
		t.Errorf("child status = %s, want %s", got, DependencyReady)
	}
	if got := b.Task(taskID(2)).DependencyStatus; got != DependencyBlocked {
		t.Errorf("grandchild status = %s, want %s", got, DependencyBlocked)
	}
}

func TestChildren(t *testing.T) {
	b := testBoard(t, 4)
	if err := SetDependency(b, taskID(1), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SetDependency(b, taskID(2), taskID(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	children := Children(b, taskID(0))
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}

	if got := Children(b, taskID(3)); len(got) != 0 {
		t.Errorf("expected no children, got %d", len(got))
	}
}

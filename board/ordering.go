package board

import (
	"errors"
	"fmt"
	"sort"
)

// ErrTaskNotFound is returned when a referenced task is not on the board.
var ErrTaskNotFound = errors.New("task not found")

// CrossBoardMoveError reports a move targeting a column that does not
// belong to the task's board. The move is rejected and the board is left
// unchanged.
type CrossBoardMoveError struct {
	// TaskID is the task being moved.
	TaskID string

	// ColumnID is the unknown target column.
	ColumnID string
}

func (e *CrossBoardMoveError) Error() string {
	return fmt.Sprintf("task %s cannot move to column %s: column is not on this board", e.TaskID, e.ColumnID)
}

// columnTasks returns pointers to the board's tasks in the given column,
// sorted by position. Equal positions only occur in malformed inbound
// data; they break by created_at ascending, oldest first.
func columnTasks(b *Board, columnID string) []*Task {
	var tasks []*Task
	for i := range b.Tasks {
		if b.Tasks[i].ColumnID == columnID {
			tasks = append(tasks, &b.Tasks[i])
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks
}

// renumberColumn rewrites the positions of every task in the column to its
// index in the position-sorted sequence, restoring the dense {0..n-1}
// invariant.
func renumberColumn(b *Board, columnID string) {
	for i, t := range columnTasks(b, columnID) {
		t.Position = i
	}
}

// clampIndex clamps an insertion index into [0, max].
func clampIndex(index, max int) int {
	if index < 0 {
		return 0
	}
	if index > max {
		return max
	}
	return index
}

// ReorderWithinColumn moves a task to destinationIndex within its current
// column and renumbers every task in that column. The index is clamped,
// never rejected; a no-op move leaves the position sequence unchanged.
func ReorderWithinColumn(b *Board, taskID string, destinationIndex int) error {
	task := b.Task(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	seq := columnTasks(b, task.ColumnID)
	insertAt(removeTask(seq, taskID), task, clampIndex(destinationIndex, len(seq)-1))
	return nil
}

// MoveAcrossColumns removes a task from its source column, renumbers the
// remainder, and inserts it into the destination column at the clamped
// index. Both columns end the operation with dense, gap-free positions.
func MoveAcrossColumns(b *Board, taskID, destinationColumnID string, destinationIndex int) error {
	task := b.Task(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if b.Column(destinationColumnID) == nil {
		return &CrossBoardMoveError{TaskID: taskID, ColumnID: destinationColumnID}
	}

	sourceColumnID := task.ColumnID
	task.ColumnID = destinationColumnID
	renumberColumn(b, sourceColumnID)

	seq := columnTasks(b, destinationColumnID)
	insertAt(removeTask(seq, taskID), task, clampIndex(destinationIndex, len(seq)-1))
	return nil
}

// removeTask returns seq without the given task.
func removeTask(seq []*Task, taskID string) []*Task {
	out := seq[:0:0]
	for _, t := range seq {
		if t.ID != taskID {
			out = append(out, t)
		}
	}
	return out
}

// insertAt inserts task into seq at index and renumbers the sequence.
func insertAt(seq []*Task, task *Task, index int) {
	if index > len(seq) {
		index = len(seq)
	}
	seq = append(seq, nil)
	copy(seq[index+1:], seq[index:])
	seq[index] = task
	for i, t := range seq {
		t.Position = i
	}
}

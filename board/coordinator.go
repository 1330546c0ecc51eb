package board

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for coordinator operations.
var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrNoColumns       = errors.New("board has no columns")
	ErrInvalidStatus   = errors.New("invalid task status")
)

// Coordinator is the façade composing the validator, ordering engine,
// dependency resolver, and progress aggregator over one board snapshot.
// All operations are synchronous transformations of the in-memory
// snapshot; a rejected command leaves it untouched, and every mutator
// returns deep copies so callers never hold references into live state.
//
// The coordinator provides no internal locking. A board snapshot is owned
// by one logical thread of control at a time; serializing commands per
// board is the calling layer's responsibility.
type Coordinator struct {
	board     *Board
	validator *Validator
	logger    *slog.Logger
}

// NewCoordinator wraps a board snapshot. A nil logger falls back to
// slog.Default().
func NewCoordinator(b *Board, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		board:     b,
		validator: NewValidator(logger),
		logger:    logger,
	}
}

// NewBoard creates an empty board for a user.
func NewBoard(name, userID string) *Board {
	now := time.Now()
	return &Board{
		ID:        uuid.New().String(),
		Name:      name,
		UserID:    userID,
		Columns:   []Column{},
		Tasks:     []Task{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddColumn appends a column to the board with the next dense position.
func (c *Coordinator) AddColumn(name string, completion bool) *Column {
	col := Column{
		ID:                 uuid.New().String(),
		BoardID:            c.board.ID,
		Name:               name,
		Position:           len(c.board.Columns),
		IsCompletionColumn: completion,
	}
	c.board.Columns = append(c.board.Columns, col)
	c.board.UpdatedAt = time.Now()
	return &col
}

// Snapshot returns a deep copy of the current board state.
func (c *Coordinator) Snapshot() *Board {
	return c.board.Clone()
}

// IngestResult contains the outcome of ingesting a batch of raw records.
type IngestResult struct {
	// Board is the updated snapshot.
	Board *Board

	// Errors describe the records that were dropped, one per record.
	Errors []error
}

// Ingest validates a batch of raw records and populates the board with the
// survivors. Invalid records are dropped and reported individually; the
// surviving tasks keep their relative order. Tasks referencing unknown
// columns land in the board's first column. Parent links naming unknown
// tasks are severed. A cycle among the surviving parent links rejects the
// whole batch with the board unchanged.
func (c *Coordinator) Ingest(records []RawRecord) (*IngestResult, error) {
	if len(c.board.Columns) == 0 {
		return nil, ErrNoColumns
	}

	result := c.validator.ValidateRecords(records)
	tasks := result.Tasks

	defaultColumn := columnAtPosition(c.board, 0)
	known := make(map[string]bool, len(tasks))
	for i := range tasks {
		known[tasks[i].ID] = true
	}

	for i := range tasks {
		t := &tasks[i]
		if c.board.Column(t.ColumnID) == nil {
			if t.ColumnID != "" {
				c.logger.Warn("task references unknown column, using first column",
					"task", t.ID, "column", t.ColumnID)
			}
			t.ColumnID = defaultColumn.ID
		}
		if t.ParentID != nil && !known[*t.ParentID] {
			c.logger.Warn("severing dangling parent reference",
				"task", t.ID, "parent", *t.ParentID)
			t.ParentID = nil
		}
	}

	graph, err := NewDependencyGraph(tasks)
	if err != nil {
		return nil, fmt.Errorf("ingest rejected: %w", err)
	}

	// Commit: from here on the batch is applied as a whole.
	c.board.Tasks = tasks
	for i := range c.board.Columns {
		renumberColumn(c.board, c.board.Columns[i].ID)
	}

	for _, t := range graph.TopologicalOrder() {
		live := c.board.Task(t.ID)
		live.HasChildren = len(Children(c.board, live.ID)) > 0
		live.DependencyStatus = dependencyStatusFor(c.board, live)
		live.ProgressPercentage = ComputeProgress(live)
	}
	c.board.UpdatedAt = time.Now()

	return &IngestResult{Board: c.board.Clone(), Errors: result.Errors}, nil
}

// MoveTask moves a task within or across columns, then recomputes its
// children's dependency status when the move changed whether the task
// counts as done.
func (c *Coordinator) MoveTask(taskID, columnID string, index int) (*Board, error) {
	task := c.board.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	wasDone := c.board.IsDone(task)

	var err error
	if task.ColumnID == columnID {
		err = ReorderWithinColumn(c.board, taskID, index)
	} else {
		err = MoveAcrossColumns(c.board, taskID, columnID, index)
	}
	if err != nil {
		return nil, err
	}

	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt

	if c.board.IsDone(task) != wasDone {
		OnParentStatusChanged(c.board, taskID)
	}

	return c.board.Clone(), nil
}

// SetTaskStatus sets a task's workflow status, propagating to children
// when the change flips whether the task counts as done.
func (c *Coordinator) SetTaskStatus(taskID string, status TaskStatus) (*Task, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	task := c.board.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	wasDone := c.board.IsDone(task)
	task.Status = status
	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt

	if c.board.IsDone(task) != wasDone {
		OnParentStatusChanged(c.board, taskID)
	}

	return task.Clone(), nil
}

// ToggleSubtask flips a checklist item and recomputes the task's progress.
func (c *Coordinator) ToggleSubtask(taskID, subtaskID string) (*Task, error) {
	task := c.board.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	found := false
	for i := range task.SubTasks {
		if task.SubTasks[i].ID == subtaskID {
			task.SubTasks[i].IsCompleted = !task.SubTasks[i].IsCompleted
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
	}

	task.ProgressPercentage = ComputeProgress(task)
	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt
	return task.Clone(), nil
}

// AddSubtask appends a checklist item to a task and recomputes progress.
func (c *Coordinator) AddSubtask(taskID, title string) (*Task, error) {
	task := c.board.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	task.SubTasks = append(task.SubTasks, SubTask{
		ID:       uuid.New().String(),
		TaskID:   taskID,
		Title:    title,
		Position: len(task.SubTasks),
	})
	task.ProgressPercentage = ComputeProgress(task)
	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt
	return task.Clone(), nil
}

// RemoveSubtask deletes a checklist item, renumbers the remainder, and
// recomputes progress.
func (c *Coordinator) RemoveSubtask(taskID, subtaskID string) (*Task, error) {
	task := c.board.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	kept := task.SubTasks[:0:0]
	for _, sub := range task.SubTasks {
		if sub.ID != subtaskID {
			kept = append(kept, sub)
		}
	}
	if len(kept) == len(task.SubTasks) {
		return nil, fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
	}
	for i := range kept {
		kept[i].Position = i
	}

	task.SubTasks = kept
	task.ProgressPercentage = ComputeProgress(task)
	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt
	return task.Clone(), nil
}

// SetDependency links a task to a parent via the dependency resolver.
func (c *Coordinator) SetDependency(taskID, parentID string) (*Task, error) {
	if err := SetDependency(c.board, taskID, parentID); err != nil {
		return nil, err
	}
	task := c.board.Task(taskID)
	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt
	return task.Clone(), nil
}

// RemoveDependency clears a task's parent link.
func (c *Coordinator) RemoveDependency(taskID string) (*Task, error) {
	if err := RemoveDependency(c.board, taskID); err != nil {
		return nil, err
	}
	task := c.board.Task(taskID)
	task.UpdatedAt = time.Now()
	c.board.UpdatedAt = task.UpdatedAt
	return task.Clone(), nil
}

// DeleteTask removes a task from the board. Its children are returned to
// the independent state rather than left with dangling references, and its
// column is renumbered.
func (c *Coordinator) DeleteTask(taskID string) (*Board, error) {
	task := c.board.Task(taskID)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	columnID := task.ColumnID

	for _, child := range Children(c.board, taskID) {
		child.ParentID = nil
		child.DependencyStatus = DependencyIndependent
	}

	kept := c.board.Tasks[:0:0]
	for _, t := range c.board.Tasks {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	c.board.Tasks = kept
	renumberColumn(c.board, columnID)

	if former := task.ParentID; former != nil {
		if parent := c.board.Task(*former); parent != nil {
			parent.HasChildren = len(Children(c.board, parent.ID)) > 0
		}
	}

	c.board.UpdatedAt = time.Now()
	return c.board.Clone(), nil
}

// columnAtPosition returns the column at the given board position, or the
// first column when none matches exactly.
func columnAtPosition(b *Board, position int) *Column {
	for i := range b.Columns {
		if b.Columns[i].Position == position {
			return &b.Columns[i]
		}
	}
	return &b.Columns[0]
}

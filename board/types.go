// Package board implements the task ordering and dependency engine that
// backs a kanban board: dense per-column position assignment, parent/child
// task dependencies with derived blocked/ready status, subtask progress
// aggregation, and normalization of inbound task records.
package board

import (
	"time"
)

// Priority represents how important a task is to the user.
type Priority string

const (
	// PriorityLow marks tasks that can wait.
	PriorityLow Priority = "low"
	// PriorityMedium is the default priority for new and coerced tasks.
	PriorityMedium Priority = "medium"
	// PriorityHigh marks tasks that should be picked up soon.
	PriorityHigh Priority = "high"
	// PriorityUrgent marks tasks that need immediate attention.
	PriorityUrgent Priority = "urgent"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// IsValid returns true if the priority is a recognized value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// EnergyLevel represents the amount of energy a task demands, t-shirt sized.
type EnergyLevel string

const (
	// EnergyXS is a trivial task.
	EnergyXS EnergyLevel = "xs"
	// EnergyS is a small task.
	EnergyS EnergyLevel = "s"
	// EnergyM is the default energy level for new and coerced tasks.
	EnergyM EnergyLevel = "m"
	// EnergyL is a large task.
	EnergyL EnergyLevel = "l"
	// EnergyXL is a very large task.
	EnergyXL EnergyLevel = "xl"
)

// String returns the string representation of the energy level.
func (e EnergyLevel) String() string {
	return string(e)
}

// IsValid returns true if the energy level is a recognized value.
func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyXS, EnergyS, EnergyM, EnergyL, EnergyXL:
		return true
	default:
		return false
	}
}

// TaskStatus represents the workflow state of a task. It is distinct from
// DependencyStatus: a task can be not_started and ready at the same time.
type TaskStatus string

const (
	// TaskStatusNotStarted indicates the task has not been worked on yet.
	TaskStatusNotStarted TaskStatus = "not_started"

	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"

	// TaskStatusCompleted indicates the task is done. A completed task
	// counts as done for dependency resolution regardless of which column
	// it sits in.
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusCancelled indicates the task was abandoned.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid returns true if the task status is a recognized value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// DependencyStatus is the derived state describing whether a task's parent
// dependency currently prevents it from starting. It must always reflect
// the parent's current completion state; the Coordinator recomputes it on
// every transition into or out of a done state.
type DependencyStatus string

const (
	// DependencyIndependent indicates the task has no parent.
	DependencyIndependent DependencyStatus = "independent"

	// DependencyBlocked indicates the task has a parent that is not yet done.
	DependencyBlocked DependencyStatus = "blocked"

	// DependencyReady indicates the task has a parent that is done.
	DependencyReady DependencyStatus = "ready"
)

// String returns the string representation of the dependency status.
func (s DependencyStatus) String() string {
	return string(s)
}

// IsValid returns true if the dependency status is a recognized value.
func (s DependencyStatus) IsValid() bool {
	switch s {
	case DependencyIndependent, DependencyBlocked, DependencyReady:
		return true
	default:
		return false
	}
}

// SubTask is a single checklist item owned by exactly one task. Subtasks
// are never reparented and are deleted independently of their siblings.
type SubTask struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// TaskID is the owning task's ID.
	TaskID string `json:"task_id"`

	// Title is the checklist item text.
	Title string `json:"title"`

	// IsCompleted indicates whether the item is checked off.
	IsCompleted bool `json:"is_completed"`

	// Position is the dense order within the task (0-based).
	Position int `json:"position"`
}

// Attachment is a file or link attached to a task.
type Attachment struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// URL points at the attached resource.
	URL string `json:"url"`
}

// Comment is a user note on a task.
type Comment struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Author is who wrote the comment.
	Author string `json:"author,omitempty"`

	// Body is the comment text.
	Body string `json:"body"`

	// CreatedAt is when the comment was written.
	CreatedAt time.Time `json:"created_at"`
}

// TimeEntry records a block of time spent on a task.
type TimeEntry struct {
	// StartedAt is when the time block began.
	StartedAt time.Time `json:"started_at"`

	// Minutes is the duration of the block.
	Minutes int `json:"minutes"`
}

// GoalLink connects a task to a goal it contributes to.
type GoalLink struct {
	// GoalID is the linked goal's identifier.
	GoalID string `json:"goal_id"`

	// Contribution describes how the task advances the goal.
	Contribution string `json:"contribution,omitempty"`
}

// AIInsights carries generated coaching hints for a task. The validator
// fills a neutral default when a record omits it, so consumers never have
// to nil-check the field.
type AIInsights struct {
	// Summary is a short generated description of the task.
	Summary string `json:"summary"`

	// SuggestedPriority is the generated priority recommendation.
	SuggestedPriority Priority `json:"suggested_priority"`

	// Confidence is how confident the generator was (0.0-1.0).
	Confidence float64 `json:"confidence"`
}

// NeutralAIInsights returns the default insights object used when a record
// arrives without one.
func NeutralAIInsights() AIInsights {
	return AIInsights{
		Summary:           "",
		SuggestedPriority: PriorityMedium,
		Confidence:        0,
	}
}

// Task is the central entity on a board.
type Task struct {
	// ID is the opaque, stable identifier.
	ID string `json:"id"`

	// TaskNumber is the optional human-facing sequential number.
	TaskNumber int `json:"task_number,omitempty"`

	// Title is the task text. Required.
	Title string `json:"title"`

	// ColumnID references the column the task sits in. Must reference a
	// column owned by the same board.
	ColumnID string `json:"column_id"`

	// Position is the dense 0-based order within the column; ascending
	// position is display order.
	Position int `json:"position"`

	// Priority classifies importance.
	Priority Priority `json:"priority"`

	// EnergyLevel classifies effort.
	EnergyLevel EnergyLevel `json:"energy_level"`

	// Tags are free-form labels with set semantics.
	Tags []string `json:"tags"`

	// ParentID references the task this one depends on. Nil means the
	// task is independent. The legacy self-referential sentinel
	// (parent_id == id) is normalized to nil by the validator.
	ParentID *string `json:"parent_id,omitempty"`

	// HasChildren is derived: true when any task names this one as parent.
	HasChildren bool `json:"has_children"`

	// DependencyStatus is derived from the parent's completion state.
	DependencyStatus DependencyStatus `json:"dependency_status"`

	// SubTasks is the ordered checklist owned by this task.
	SubTasks []SubTask `json:"sub_tasks"`

	// ProgressPercentage is 0-100. Derived from subtasks when any exist,
	// otherwise externally set.
	ProgressPercentage int `json:"progress_percentage"`

	// BusinessValue scores external value, 0-100.
	BusinessValue int `json:"business_value"`

	// PersonalValue scores personal value, 0-100.
	PersonalValue int `json:"personal_value"`

	// EstimatedDuration is the estimate in minutes, never below 5.
	EstimatedDuration int `json:"estimated_duration"`

	// Status is the workflow state.
	Status TaskStatus `json:"status"`

	// Dependencies carries inbound dependency references for display.
	// The resolver operates on ParentID only.
	Dependencies []string `json:"dependencies"`

	// Attachments are files or links attached to the task.
	Attachments []Attachment `json:"attachments"`

	// Comments are user notes on the task.
	Comments []Comment `json:"comments"`

	// TimeTracking records time spent on the task.
	TimeTracking []TimeEntry `json:"time_tracking"`

	// GoalConnections links the task to goals.
	GoalConnections []GoalLink `json:"goal_connections"`

	// AIInsights carries generated coaching hints. Never nil-checked;
	// the validator guarantees a value.
	AIInsights AIInsights `json:"ai_insights"`

	// CreatedAt is when the task was created. Also the tie-break for
	// malformed duplicate positions (oldest first).
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the task was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.ParentID != nil {
		pid := *t.ParentID
		c.ParentID = &pid
	}
	c.Tags = append([]string(nil), t.Tags...)
	c.SubTasks = append([]SubTask(nil), t.SubTasks...)
	c.Dependencies = append([]string(nil), t.Dependencies...)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	c.Comments = append([]Comment(nil), t.Comments...)
	c.TimeTracking = append([]TimeEntry(nil), t.TimeTracking...)
	c.GoalConnections = append([]GoalLink(nil), t.GoalConnections...)
	return &c
}

// Column is an ordered bucket of tasks within a board.
type Column struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// BoardID is the owning board's ID.
	BoardID string `json:"board_id"`

	// Name is the display name (e.g., "To Do", "Done").
	Name string `json:"name"`

	// Position is the dense 0-based order within the board.
	Position int `json:"position"`

	// IsCompletionColumn marks columns whose tasks count as done for
	// dependency resolution.
	IsCompletionColumn bool `json:"is_completion_column"`
}

// Board is a named collection of columns and tasks belonging to one user.
// The board exclusively owns its columns and tasks.
type Board struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// UserID is the owning user.
	UserID string `json:"user_id"`

	// Columns are the board's columns, positions dense and 0-based.
	Columns []Column `json:"columns"`

	// Tasks are all tasks on the board, across every column.
	Tasks []Task `json:"tasks"`

	// CreatedAt is when the board was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the board was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	c.Columns = append([]Column(nil), b.Columns...)
	c.Tasks = make([]Task, len(b.Tasks))
	for i := range b.Tasks {
		c.Tasks[i] = *b.Tasks[i].Clone()
	}
	return &c
}

// Task returns the task with the given ID, or nil.
func (b *Board) Task(id string) *Task {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return &b.Tasks[i]
		}
	}
	return nil
}

// Column returns the column with the given ID, or nil.
func (b *Board) Column(id string) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// IsDone reports whether a task counts as done for dependency resolution:
// either its workflow status is completed or it sits in a completion column.
func (b *Board) IsDone(t *Task) bool {
	if t.Status == TaskStatusCompleted {
		return true
	}
	col := b.Column(t.ColumnID)
	return col != nil && col.IsCompletionColumn
}

package board

import "math"

// ComputeProgress returns a task's completion percentage. With no subtasks
// the existing percentage is returned unchanged (progress is externally
// driven); otherwise the checklist is the single source of truth:
// round(100 * completed / total). Pure function; the Coordinator re-invokes
// it after every subtask add, toggle, and delete.
func ComputeProgress(t *Task) int {
	if len(t.SubTasks) == 0 {
		return t.ProgressPercentage
	}

	completed := 0
	for _, sub := range t.SubTasks {
		if sub.IsCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(t.SubTasks))))
}

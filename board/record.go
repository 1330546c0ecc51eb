package board

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinEstimatedDuration is the floor for task duration estimates, in minutes.
const MinEstimatedDuration = 5

// RawRecord is the permissive wire shape for an inbound task record.
// Records arrive from storage or import payloads that may be partially
// typed or malformed; the validator, not the decoder, decides what
// survives. Nothing downstream of ValidateRecord sees this shape.
type RawRecord map[string]any

// MissingFieldError reports a required field absent from an inbound record.
// The batch contract treats it as non-fatal: the record is dropped and the
// rest of the batch continues.
type MissingFieldError struct {
	// Field is the missing field name.
	Field string

	// RecordID identifies the offending record when it carried an id.
	RecordID string
}

func (e *MissingFieldError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("record missing required field %q", e.Field)
	}
	return fmt.Sprintf("record %s missing required field %q", e.RecordID, e.Field)
}

// ParsePriority matches s against the priority enum, case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// ParseEnergyLevel matches s against the energy level enum, case-insensitively.
func ParseEnergyLevel(s string) (EnergyLevel, bool) {
	e := EnergyLevel(strings.ToLower(strings.TrimSpace(s)))
	return e, e.IsValid()
}

// ParseTaskStatus matches s against the task workflow enum, case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// Validator normalizes arbitrary inbound records into well-formed tasks.
// Unknown enum values and out-of-range numbers are corrected with defaults
// and logged as coercion warnings; only missing required fields reject a
// record outright.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a validator. A nil logger falls back to slog.Default().
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// RecordResult contains the outcome of validating a batch of records.
// Tasks preserves the relative order of the records that passed; Errors
// holds one entry per dropped record.
type RecordResult struct {
	// Tasks are the validated tasks, in input order.
	Tasks []Task

	// Errors describe the records that were dropped.
	Errors []error
}

// ValidateRecords validates a batch. One bad record never aborts the batch.
func (v *Validator) ValidateRecords(records []RawRecord) *RecordResult {
	result := &RecordResult{
		Tasks:  []Task{},
		Errors: []error{},
	}

	for _, rec := range records {
		task, err := v.ValidateRecord(rec)
		if err != nil {
			v.logger.Warn("dropping invalid task record", "error", err)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Tasks = append(result.Tasks, *task)
	}

	return result
}

// ValidateRecord produces a fully-typed Task from an arbitrary record, or
// rejects it. For any record with a non-empty id and title this never
// fails and the returned task satisfies every enum and range constraint.
func (v *Validator) ValidateRecord(rec RawRecord) (*Task, error) {
	id := stringValue(rec["id"])
	title := stringValue(rec["title"])

	if id == "" {
		return nil, &MissingFieldError{Field: "id"}
	}
	if title == "" {
		return nil, &MissingFieldError{Field: "title", RecordID: id}
	}

	now := time.Now()
	task := &Task{
		ID:        id,
		Title:     title,
		ColumnID:  stringValue(rec["column_id"]),
		CreatedAt: timeValue(rec["created_at"], now),
		UpdatedAt: timeValue(rec["updated_at"], now),
	}
	task.TaskNumber, _ = intValue(rec["task_number"])
	task.Position, _ = intValue(rec["position"])

	task.Priority = v.coercePriority(id, rec["priority"])
	task.EnergyLevel = v.coerceEnergyLevel(id, rec["energy_level"])
	task.Status = v.coerceStatus(id, rec["status"])

	task.BusinessValue = v.clampPercent(id, "business_value", rec["business_value"])
	task.PersonalValue = v.clampPercent(id, "personal_value", rec["personal_value"])
	task.ProgressPercentage = v.clampPercent(id, "progress_percentage", rec["progress_percentage"])
	task.EstimatedDuration = v.floorDuration(id, rec["estimated_duration"])

	task.Tags = stringSlice(rec["tags"])
	task.Dependencies = stringSlice(rec["dependencies"])
	task.SubTasks = v.subTasks(id, rec["sub_tasks"])
	task.Attachments = decodeSlice[Attachment](rec["attachments"])
	task.Comments = decodeSlice[Comment](rec["comments"])
	task.TimeTracking = decodeSlice[TimeEntry](rec["time_tracking"])
	task.GoalConnections = decodeSlice[GoalLink](rec["goal_connections"])
	task.AIInsights = aiInsights(rec["ai_insights"])

	// Legacy records mark "no parent" with a self-referential parent_id.
	// Normalize to an explicit nil.
	if pid := stringValue(rec["parent_id"]); pid != "" && pid != id {
		task.ParentID = &pid
	}

	if ds := DependencyStatus(strings.ToLower(stringValue(rec["dependency_status"]))); ds.IsValid() {
		task.DependencyStatus = ds
	} else {
		task.DependencyStatus = DependencyIndependent
	}

	return task, nil
}

func (v *Validator) coercePriority(recordID string, raw any) Priority {
	s := stringValue(raw)
	if p, ok := ParsePriority(s); ok {
		return p
	}
	if s != "" {
		v.logger.Warn("coerced unknown priority",
			"record", recordID, "value", s, "fallback", PriorityMedium.String())
	}
	return PriorityMedium
}

func (v *Validator) coerceEnergyLevel(recordID string, raw any) EnergyLevel {
	s := stringValue(raw)
	if e, ok := ParseEnergyLevel(s); ok {
		return e
	}
	if s != "" {
		v.logger.Warn("coerced unknown energy level",
			"record", recordID, "value", s, "fallback", EnergyM.String())
	}
	return EnergyM
}

func (v *Validator) coerceStatus(recordID string, raw any) TaskStatus {
	s := stringValue(raw)
	if st, ok := ParseTaskStatus(s); ok {
		return st
	}
	if s != "" {
		v.logger.Warn("coerced unknown status",
			"record", recordID, "value", s, "fallback", TaskStatusNotStarted.String())
	}
	return TaskStatusNotStarted
}

// clampPercent clamps a numeric field into [0, 100].
func (v *Validator) clampPercent(recordID, field string, raw any) int {
	n, ok := intValue(raw)
	if !ok {
		return 0
	}
	switch {
	case n < 0:
		v.logger.Warn("clamped out-of-range value", "record", recordID, "field", field, "value", n)
		return 0
	case n > 100:
		v.logger.Warn("clamped out-of-range value", "record", recordID, "field", field, "value", n)
		return 100
	default:
		return n
	}
}

// floorDuration floors estimated_duration at MinEstimatedDuration minutes.
func (v *Validator) floorDuration(recordID string, raw any) int {
	n, ok := intValue(raw)
	if !ok || n < MinEstimatedDuration {
		if ok && n != 0 {
			v.logger.Warn("floored estimated duration",
				"record", recordID, "value", n, "minimum", MinEstimatedDuration)
		}
		return MinEstimatedDuration
	}
	return n
}

// subTasks coerces an arbitrary value into a well-formed checklist:
// unparseable entries are skipped, missing ids are generated, and
// positions are renumbered densely in the resulting order.
func (v *Validator) subTasks(taskID string, raw any) []SubTask {
	items, ok := raw.([]any)
	if !ok {
		return []SubTask{}
	}

	subs := make([]SubTask, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			v.logger.Warn("skipped malformed subtask entry", "task", taskID)
			continue
		}
		title := stringValue(m["title"])
		if title == "" {
			v.logger.Warn("skipped subtask without title", "task", taskID)
			continue
		}
		sub := SubTask{
			ID:          stringValue(m["id"]),
			TaskID:      taskID,
			Title:       title,
			IsCompleted: boolValue(m["is_completed"]),
		}
		sub.Position, _ = intValue(m["position"])
		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		subs = append(subs, sub)
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Position < subs[j].Position
	})
	for i := range subs {
		subs[i].Position = i
	}

	return subs
}

// stringSlice coerces an arbitrary value into a string slice. A malformed
// single value never propagates: anything that is not a sequence becomes
// an empty slice, and non-string elements are dropped.
func stringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeSlice round-trips an arbitrary value through JSON into a typed
// slice, returning an empty slice when the value has any other shape.
func decodeSlice[T any](raw any) []T {
	items, ok := raw.([]any)
	if !ok {
		return []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// aiInsights decodes the insights object, falling back to the neutral
// default so downstream consumers never null-check it.
func aiInsights(raw any) AIInsights {
	m, ok := raw.(map[string]any)
	if !ok {
		return NeutralAIInsights()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return NeutralAIInsights()
	}
	insights := NeutralAIInsights()
	if err := json.Unmarshal(data, &insights); err != nil {
		return NeutralAIInsights()
	}
	if !insights.SuggestedPriority.IsValid() {
		insights.SuggestedPriority = PriorityMedium
	}
	return insights
}

// stringValue extracts a string from a loosely typed value. Numbers are
// formatted rather than rejected since imported ids sometimes arrive
// numeric.
func stringValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// intValue extracts an integer from a loosely typed value.
func intValue(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(math.Round(v)), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		return 0, false
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// boolValue extracts a boolean from a loosely typed value.
func boolValue(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// timeValue parses a timestamp from a loosely typed value, falling back
// to the given default.
func timeValue(raw any, fallback time.Time) time.Time {
	switch v := raw.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	case time.Time:
		return v
	}
	return fallback
}

package board

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardValidator() *Validator {
	return NewValidator(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestValidateRecord_MissingRequiredFields(t *testing.T) {
	v := discardValidator()

	_, err := v.ValidateRecord(RawRecord{"title": "no id"})
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "id", missing.Field)

	_, err = v.ValidateRecord(RawRecord{"id": "x"})
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "title", missing.Field)
	assert.Equal(t, "x", missing.RecordID)
}

func TestValidateRecord_CoercesUnknownPriority(t *testing.T) {
	// {id:"x", title:"y", priority:"SUPER-HIGH"} validates to medium with
	// a logged warning, not a thrown error.
	var buf bytes.Buffer
	v := NewValidator(slog.New(slog.NewTextHandler(&buf, nil)))

	task, err := v.ValidateRecord(RawRecord{"id": "x", "title": "y", "priority": "SUPER-HIGH"})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Contains(t, buf.String(), "coerced unknown priority")
}

func TestValidateRecord_CaseInsensitiveEnums(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{
		"id":           "x",
		"title":        "y",
		"priority":     "URGENT",
		"energy_level": "XL",
		"status":       "In_Progress",
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, task.Priority)
	assert.Equal(t, EnergyXL, task.EnergyLevel)
	assert.Equal(t, TaskStatusInProgress, task.Status)
}

func TestValidateRecord_Defaults(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{"id": "x", "title": "y"})
	require.NoError(t, err)

	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, EnergyM, task.EnergyLevel)
	assert.Equal(t, TaskStatusNotStarted, task.Status)
	assert.Equal(t, DependencyIndependent, task.DependencyStatus)
	assert.Nil(t, task.ParentID)
	assert.Equal(t, MinEstimatedDuration, task.EstimatedDuration)
	assert.Equal(t, NeutralAIInsights(), task.AIInsights)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestValidateRecord_ClampsNumericRanges(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{
		"id":                  "x",
		"title":               "y",
		"business_value":      float64(250),
		"personal_value":      float64(-10),
		"progress_percentage": float64(101),
		"estimated_duration":  float64(2),
	})
	require.NoError(t, err)

	assert.Equal(t, 100, task.BusinessValue)
	assert.Equal(t, 0, task.PersonalValue)
	assert.Equal(t, 100, task.ProgressPercentage)
	assert.Equal(t, MinEstimatedDuration, task.EstimatedDuration)
}

func TestValidateRecord_CoercesMalformedCollections(t *testing.T) {
	v := discardValidator()

	// A malformed single value never propagates.
	task, err := v.ValidateRecord(RawRecord{
		"id":            "x",
		"title":         "y",
		"tags":          "not-a-list",
		"sub_tasks":     map[string]any{"oops": true},
		"dependencies":  float64(7),
		"attachments":   "nope",
		"comments":      nil,
		"time_tracking": true,
	})
	require.NoError(t, err)

	assert.Empty(t, task.Tags)
	assert.NotNil(t, task.Tags)
	assert.Empty(t, task.SubTasks)
	assert.NotNil(t, task.SubTasks)
	assert.Empty(t, task.Dependencies)
	assert.Empty(t, task.Attachments)
	assert.Empty(t, task.Comments)
	assert.Empty(t, task.TimeTracking)
	assert.Empty(t, task.GoalConnections)
}

func TestValidateRecord_ParsesSubtasks(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{
		"id":    "x",
		"title": "y",
		"sub_tasks": []any{
			map[string]any{"id": "s2", "title": "second", "position": float64(5)},
			map[string]any{"id": "s1", "title": "first", "position": float64(1), "is_completed": true},
			"garbage entry",
			map[string]any{"position": float64(0)}, // no title, skipped
		},
	})
	require.NoError(t, err)

	require.Len(t, task.SubTasks, 2)
	// Renumbered densely in provided-position order.
	assert.Equal(t, "s1", task.SubTasks[0].ID)
	assert.Equal(t, 0, task.SubTasks[0].Position)
	assert.True(t, task.SubTasks[0].IsCompleted)
	assert.Equal(t, "s2", task.SubTasks[1].ID)
	assert.Equal(t, 1, task.SubTasks[1].Position)
	assert.Equal(t, "x", task.SubTasks[0].TaskID)
}

func TestValidateRecord_GeneratesSubtaskIDs(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{
		"id":    "x",
		"title": "y",
		"sub_tasks": []any{
			map[string]any{"title": "no id"},
		},
	})
	require.NoError(t, err)
	require.Len(t, task.SubTasks, 1)
	assert.NotEmpty(t, task.SubTasks[0].ID)
}

func TestValidateRecord_NormalizesSelfReferentialParent(t *testing.T) {
	v := discardValidator()

	// Legacy records mark "no parent" as parent_id == id.
	task, err := v.ValidateRecord(RawRecord{"id": "x", "title": "y", "parent_id": "x"})
	require.NoError(t, err)
	assert.Nil(t, task.ParentID)

	task, err = v.ValidateRecord(RawRecord{"id": "x", "title": "y", "parent_id": "other"})
	require.NoError(t, err)
	require.NotNil(t, task.ParentID)
	assert.Equal(t, "other", *task.ParentID)
}

func TestValidateRecord_ParsesTimestamps(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{
		"id":         "x",
		"title":      "y",
		"created_at": "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), task.CreatedAt)
}

func TestValidateRecords_BatchDropsBadRecordsAndKeepsOrder(t *testing.T) {
	v := discardValidator()

	result := v.ValidateRecords([]RawRecord{
		{"id": "a", "title": "first"},
		{"title": "missing id"},
		{"id": "b", "title": "second"},
		{"id": "c"}, // missing title
		{"id": "d", "title": "third"},
	})

	require.Len(t, result.Tasks, 3)
	assert.Equal(t, "a", result.Tasks[0].ID)
	assert.Equal(t, "b", result.Tasks[1].ID)
	assert.Equal(t, "d", result.Tasks[2].ID)
	assert.Len(t, result.Errors, 2)
}

func TestValidateRecord_AIInsights(t *testing.T) {
	v := discardValidator()

	task, err := v.ValidateRecord(RawRecord{
		"id":    "x",
		"title": "y",
		"ai_insights": map[string]any{
			"summary":            "break this into smaller steps",
			"suggested_priority": "high",
			"confidence":         0.8,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "break this into smaller steps", task.AIInsights.Summary)
	assert.Equal(t, PriorityHigh, task.AIInsights.SuggestedPriority)
	assert.InDelta(t, 0.8, task.AIInsights.Confidence, 1e-9)

	// Invalid suggested priority falls back to medium.
	task, err = v.ValidateRecord(RawRecord{
		"id":          "x",
		"title":       "y",
		"ai_insights": map[string]any{"suggested_priority": "mega"},
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, task.AIInsights.SuggestedPriority)
}

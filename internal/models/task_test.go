package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  TaskStatus
		ok    bool
	}{
		{"todo", TaskStatusTodo, true},
		{"in-progress", TaskStatusInProgress, true},
		{"done", TaskStatusDone, true},
		{"", "", false},
		{"Done", "", false},
		{"in_progress", "", false},
		{"archived", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStatus(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input string
		want  TaskPriority
		ok    bool
	}{
		{"low", TaskPriorityLow, true},
		{"medium", TaskPriorityMedium, true},
		{"high", TaskPriorityHigh, true},
		{"", "", false},
		{"urgent", "", false},
		{"HIGH", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePriority(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestParseDueDate_AcceptedFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"calendar date", `"2024-10-15"`, time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)},
		{"date-time with Z", `"2024-10-15T14:30:00Z"`, time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)},
		{"date-time without offset", `"2024-10-15T14:30:00"`, time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)},
		{"rfc2822", `"Tue, 15 Oct 2024 14:30:00 GMT"`, time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)},
		{"epoch millis", `1697371800000`, time.UnixMilli(1697371800000).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueDate(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseDueDate_Rejected(t *testing.T) {
	tests := []string{
		``,
		`null`,
		`"not-a-date"`,
		`"2024-13-45"`,
		`true`,
		`{"year":2024}`,
	}

	for _, raw := range tests {
		_, err := ParseDueDate(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidDueDate, "raw %s", raw)
	}
}

func TestTaskWithCreatorView(t *testing.T) {
	taskID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	due := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)

	composed := &TaskWithCreator{
		Task: Task{
			ID:        taskID,
			Title:     "Buy milk",
			Status:    TaskStatusTodo,
			Priority:  TaskPriorityMedium,
			Category:  "personal",
			DueDate:   due,
			CreatedBy: userID,
		},
		Creator: User{ID: userID, Name: "Alice"},
	}

	view := composed.View()
	assert.Equal(t, taskID.Hex(), view.ID)
	assert.Equal(t, "Buy milk", view.Title)
	assert.Equal(t, Creator{ID: userID.Hex(), Name: "Alice"}, view.CreatedBy)
	assert.True(t, view.DueDate.Equal(due))
}

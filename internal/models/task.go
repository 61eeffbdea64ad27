package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = TaskPriorityMedium

// ParseStatus validates a status value against the closed set.
// Shared by the update and status-change paths.
func ParseStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return TaskStatus(s), true
	default:
		return "", false
	}
}

// ParsePriority validates a priority value against the closed set.
func ParsePriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return TaskPriority(s), true
	default:
		return "", false
	}
}

type Task struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Status    TaskStatus         `bson:"status"`
	Priority  TaskPriority       `bson:"priority"`
	Category  string             `bson:"category"`
	DueDate   time.Time          `bson:"dueDate"`
	CreatedBy primitive.ObjectID `bson:"createdBy"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

// TaskWithCreator is the composed view the storage layer returns:
// the task document joined with the user it references.
type TaskWithCreator struct {
	Task    `bson:",inline"`
	Creator User `bson:"creator"`
}

// Creator is the enriched replacement for the raw createdBy reference.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskView is the wire representation of an enriched task.
type TaskView struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Status    TaskStatus   `json:"status"`
	Priority  TaskPriority `json:"priority"`
	Category  string       `json:"category"`
	DueDate   time.Time    `json:"dueDate"`
	CreatedBy Creator      `json:"createdBy"`
}

func (t *TaskWithCreator) View() *TaskView {
	return &TaskView{
		ID:       t.ID.Hex(),
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
		Category: t.Category,
		DueDate:  t.DueDate,
		CreatedBy: Creator{
			ID:   t.Creator.ID.Hex(),
			Name: t.Creator.Name,
		},
	}
}

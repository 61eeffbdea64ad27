package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/internal/db"
	"task-manager/internal/models"
)

/*
handles routes:
- GET /tasks - list the caller's tasks
- POST /tasks - create a new task
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r, userID)
	case http.MethodPost:
		h.createTask(w, r, userID)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

/*
routes:
- GET /tasks/{id}
- PATCH /tasks/{id}
- DELETE /tasks/{id}
- PATCH /tasks/{id}/status
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if rest == "" {
		sendError(w, "Task ID is required", http.StatusBadRequest)
		return
	}

	if idStr, found := strings.CutSuffix(rest, "/status"); found {
		if r.Method != http.MethodPatch {
			sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.updateTaskStatus(w, r, userID, idStr)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTask(w, r, userID, rest)
	case http.MethodPatch:
		h.updateTask(w, r, userID, rest)
	case http.MethodDelete:
		h.deleteTask(w, r, userID, rest)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.TaskRepo.ListByOwner(ctx, userID)
	if err != nil {
		h.internalError(w, "list tasks", err)
		return
	}

	views := make([]*models.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, task.View())
	}
	sendJSON(w, http.StatusOK, taskListResponse{
		Message: "Tasks retrieved successfully",
		Tasks:   views,
	})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var input struct {
		Title    string          `json:"title"`
		Priority string          `json:"priority"`
		Category string          `json:"category"`
		DueDate  json.RawMessage `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if input.Title == "" || input.Category == "" || len(input.DueDate) == 0 || string(input.DueDate) == "null" {
		sendError(w, "Missing required fields: title, category, or dueDate", http.StatusBadRequest)
		return
	}

	priority := models.DefaultPriority
	if input.Priority != "" {
		p, ok := models.ParsePriority(input.Priority)
		if !ok {
			sendError(w, "Invalid priority", http.StatusBadRequest)
			return
		}
		priority = p
	}

	dueDate, err := models.ParseDueDate(input.DueDate)
	if err != nil {
		sendError(w, "Invalid due date", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	task := &models.Task{
		Title:     input.Title,
		Status:    models.TaskStatusTodo,
		Priority:  priority,
		Category:  input.Category,
		DueDate:   dueDate,
		CreatedBy: userID,
	}
	if err := h.TaskRepo.Insert(ctx, task); err != nil {
		h.internalError(w, "create task", err)
		return
	}

	created, err := h.TaskRepo.GetOwned(ctx, task.ID, userID)
	if err != nil {
		h.internalError(w, "load created task", err)
		return
	}

	view := created.View()
	h.WSHub.BroadcastTaskUpdate(userID, "task_created", view)
	sendJSON(w, http.StatusCreated, taskResponse{
		Message: "Task created successfully",
		Task:    view,
	})
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, idStr string) {
	taskID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		sendError(w, "Invalid format for task ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	task, err := h.TaskRepo.GetOwned(ctx, taskID, userID)
	if errors.Is(err, db.ErrTaskNotFound) {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "get task", err)
		return
	}

	sendJSON(w, http.StatusOK, taskResponse{
		Message: "Task retrieved successfully",
		Task:    task.View(),
	})
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, idStr string) {
	taskID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		sendError(w, "Invalid format for task ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.TaskRepo.GetOwned(ctx, taskID, userID); err != nil {
		if errors.Is(err, db.ErrTaskNotFound) {
			sendError(w, "Task not found", http.StatusNotFound)
			return
		}
		h.internalError(w, "load task for delete", err)
		return
	}

	if err := h.TaskRepo.Delete(ctx, taskID); err != nil {
		h.internalError(w, "delete task", err)
		return
	}

	h.WSHub.BroadcastTaskDeleted(userID, taskID.Hex())
	sendJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, idStr string) {
	taskID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		sendError(w, "Invalid format for task ID", http.StatusBadRequest)
		return
	}
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var input struct {
		Title    string          `json:"title"`
		Status   string          `json:"status"`
		Priority string          `json:"priority"`
		Category string          `json:"category"`
		DueDate  json.RawMessage `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := h.TaskRepo.GetOwned(ctx, taskID, userID)
	if errors.Is(err, db.ErrTaskNotFound) {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "load task for update", err)
		return
	}

	hasDueDate := len(input.DueDate) > 0 && string(input.DueDate) != "null"
	var dueDate time.Time
	if hasDueDate {
		dueDate, err = models.ParseDueDate(input.DueDate)
		if err != nil {
			sendError(w, "Invalid due date", http.StatusBadRequest)
			return
		}
	}

	var status models.TaskStatus
	if input.Status != "" {
		s, ok := models.ParseStatus(input.Status)
		if !ok {
			sendError(w, "Invalid status", http.StatusBadRequest)
			return
		}
		status = s
	}

	var priority models.TaskPriority
	if input.Priority != "" {
		p, ok := models.ParsePriority(input.Priority)
		if !ok {
			sendError(w, "Invalid priority", http.StatusBadRequest)
			return
		}
		priority = p
	}

	// Only present, non-empty fields overwrite; an empty field is
	// skipped, never cleared.
	task := existing.Task
	if input.Title != "" {
		task.Title = input.Title
	}
	if status != "" {
		task.Status = status
	}
	if priority != "" {
		task.Priority = priority
	}
	if input.Category != "" {
		task.Category = input.Category
	}
	if hasDueDate {
		task.DueDate = dueDate
	}

	if err := h.TaskRepo.Update(ctx, &task); err != nil {
		h.internalError(w, "update task", err)
		return
	}

	updated, err := h.TaskRepo.GetOwned(ctx, taskID, userID)
	if err != nil {
		h.internalError(w, "load updated task", err)
		return
	}

	view := updated.View()
	h.WSHub.BroadcastTaskUpdate(userID, "task_updated", view)
	sendJSON(w, http.StatusOK, taskResponse{
		Message: "Task updated successfully",
		Task:    view,
	})
}

func (h *Handler) updateTaskStatus(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, idStr string) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var input struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.NewStatus == "" {
		sendError(w, "Missing required fields: newStatus", http.StatusBadRequest)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		sendError(w, "Invalid format for task ID", http.StatusBadRequest)
		return
	}

	status, ok := models.ParseStatus(input.NewStatus)
	if !ok {
		sendError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := h.TaskRepo.GetOwned(ctx, taskID, userID)
	if errors.Is(err, db.ErrTaskNotFound) {
		sendError(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "load task for status update", err)
		return
	}

	task := existing.Task
	task.Status = status
	if err := h.TaskRepo.Update(ctx, &task); err != nil {
		h.internalError(w, "update task status", err)
		return
	}

	updated, err := h.TaskRepo.GetOwned(ctx, taskID, userID)
	if err != nil {
		h.internalError(w, "load updated task", err)
		return
	}

	view := updated.View()
	h.WSHub.BroadcastTaskUpdate(userID, "task_updated", view)
	sendJSON(w, http.StatusOK, taskResponse{
		Message: "Task status updated successfully",
		Task:    view,
	})
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/opsboard/teamtask/internal/domain"
	"github.com/opsboard/teamtask/internal/handler/dto"
	"github.com/opsboard/teamtask/internal/middleware"
	"github.com/opsboard/teamtask/internal/repository"
	"github.com/opsboard/teamtask/internal/service"
)

// handleCreateTask creates a new task in the not_started stage.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := dto.Validate(req); err != nil {
		respondDomainError(w, err)
		return
	}

	assignment, err := req.Assignment()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	task, err := h.taskService.CreateTask(ctx, actor, service.CreateTaskParams{
		Name:                 req.Name,
		Description:          req.Description,
		ImagePath:            req.ImagePath,
		DueDate:              req.DueDate,
		Priority:             domain.TaskPriority(req.Priority),
		Assignment:           assignment,
		InitialTimeEstimates: domain.TimeEstimates(req.InitialTimeEstimates),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task, time.Now()))
}

// handleGetTask retrieves task details with the audit trail.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractPathID(w, r, "task")
	if !ok {
		return
	}

	task, events, err := h.taskService.GetTask(ctx, actor, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	response := dto.TaskDetailResponse{
		Task:   dto.ToTaskResponse(task, time.Now()),
		Events: make([]dto.TaskEventResponse, len(events)),
	}
	for i, event := range events {
		response.Events[i] = dto.ToTaskEventResponse(event)
	}

	respondJSON(w, http.StatusOK, response)
}

// handleTakeTask claims a waiting task for the caller.
func (h *Handler) handleTakeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractPathID(w, r, "task")
	if !ok {
		return
	}

	task, err := h.taskService.TakeTask(ctx, actor, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task, time.Now()))
}

// handleUpdateProgress applies a worker patch to a task the caller has taken.
func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractPathID(w, r, "task")
	if !ok {
		return
	}

	var req dto.WorkerPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := dto.Validate(req); err != nil {
		respondDomainError(w, err)
		return
	}

	patch := service.WorkerPatch{
		CurrentTimeEstimate: req.CurrentTimeEstimate,
		ItemsCompleted:      req.ItemsCompleted,
		WorkResultImage:     req.WorkResultImage,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}

	task, err := h.taskService.UpdateProgress(ctx, actor, taskID, patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task, time.Now()))
}

// handleManagerUpdate applies a creator-manager patch to task metadata and,
// optionally, a status transition.
func (h *Handler) handleManagerUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractPathID(w, r, "task")
	if !ok {
		return
	}

	var req dto.ManagerPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := dto.Validate(req); err != nil {
		respondDomainError(w, err)
		return
	}

	patch := service.ManagerPatch{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}

	task, err := h.taskService.ManagerUpdate(ctx, actor, taskID, patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task, time.Now()))
}

// handleDeleteTask removes a task.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractPathID(w, r, "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(ctx, actor, taskID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListTasks returns the caller's visible tasks with optional filters.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	query := r.URL.Query()

	var statuses []string
	if statusParam := query.Get("status"); statusParam != "" {
		statuses = splitAndTrim(statusParam, ",")
		for _, status := range statuses {
			if !domain.TaskStatus(status).IsValid() {
				respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid status filter: "+status)
				return
			}
		}
	}

	var priorities []string
	if priorityParam := query.Get("priority"); priorityParam != "" {
		priorities = splitAndTrim(priorityParam, ",")
		for _, priority := range priorities {
			if !domain.TaskPriority(priority).IsValid() {
				respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid priority filter: "+priority)
				return
			}
		}
	}

	limit := 50
	if limitParam := query.Get("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	offset := 0
	if offsetParam := query.Get("offset"); offsetParam != "" {
		if n, err := strconv.Atoi(offsetParam); err == nil && n >= 0 {
			offset = n
		}
	}

	tasks, total, err := h.taskService.ListTasks(ctx, actor, repository.TaskListFilters{
		Statuses:   statuses,
		Priorities: priorities,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tasks")
		return
	}

	now := time.Now()
	items := make([]dto.TaskResponse, len(tasks))
	for i, task := range tasks {
		items[i] = dto.ToTaskResponse(task, now)
	}

	respondJSON(w, http.StatusOK, dto.TasksListResponse{
		Tasks:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

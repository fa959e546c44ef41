package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/repositories"
	"github.com/YingY4ang/Transcriber/pkg/errors"
)

// TaskHandler handles follow-up task status updates
type TaskHandler struct {
	repo repositories.ConsultationRepository
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(repo repositories.ConsultationRepository) *TaskHandler {
	return &TaskHandler{repo: repo}
}

type taskStatusRequest struct {
	Status entities.TaskStatus `json:"status"`
}

// UpdateTaskStatus handles PATCH /tasks/{taskID}?key=<audio key>
//
// The update is a compare-and-swap on the record version; a 409 means a
// concurrent update won and the client should re-read and retry.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	if taskID == "" {
		respondWithError(w, http.StatusBadRequest, "task ID is required")
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		respondWithError(w, http.StatusBadRequest, "key parameter is required")
		return
	}

	var payload taskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	record, err := h.repo.UpdateTaskStatus(r.Context(), key, taskID, payload.Status)
	if err != nil {
		switch {
		case errors.IsType(err, errors.ErrorTypeValidation):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.IsType(err, errors.ErrorTypeNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.IsType(err, errors.ErrorTypeConflict):
			respondWithError(w, http.StatusConflict, "task was updated concurrently, re-read and retry")
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to update task")
		}
		return
	}

	task := record.TaskByID(taskID)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":             "updated",
		"task":               task,
		"pending_task_count": record.PendingTaskCount,
		"urgent_task_count":  record.UrgentTaskCount,
		"total_task_count":   record.TotalTaskCount,
		"record_version":     record.RecordVersion,
	})
}

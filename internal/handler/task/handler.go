// Package task exposes task listing and status updates.
package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gurukul-ai/backend/internal/middleware"
	taskModel "github.com/gurukul-ai/backend/internal/model/task"
	taskService "github.com/gurukul-ai/backend/internal/service/task"
	"github.com/gurukul-ai/backend/internal/store"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Swappable clock for tests.
var timeNow = time.Now

// Handler serves task queries and status changes.
type Handler struct {
	taskSvc *taskService.Service
}

// New creates the task handler.
func New(taskSvc *taskService.Service) *Handler {
	return &Handler{taskSvc: taskSvc}
}

// RegisterRoutes mounts the task routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tasks", h.handleList)
	r.Patch("/tasks/{taskID}/status", h.handleUpdateStatus)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	filter := store.TaskFilter{
		UserID:  identity.UserID,
		TutorID: r.URL.Query().Get("tutorId"),
	}

	// Optional ?date=YYYY-MM-DD scopes to a single day.
	if date := r.URL.Query().Get("date"); date != "" {
		if len(date) != 10 || date[4] != '-' || date[7] != '-' {
			utils.RespondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &taskModel.DateParts{Year: date[:4], Month: date[5:7], Day: date[8:10]}
	}

	grouped, err := h.taskSvc.ListGrouped(r.Context(), filter)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"tasks": grouped,
		"today": taskModel.PartsOf(timeNow()),
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.taskSvc.UpdateStatus(r.Context(), chi.URLParam(r, "taskID"), taskModel.Status(payload.Status))
	if err != nil {
		switch {
		case errors.Is(err, taskService.ErrInvalidStatus):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, taskService.ErrTaskNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "update failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, t)
}

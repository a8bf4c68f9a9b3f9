// Package tutor exposes tutor persona endpoints.
package tutor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gurukul-ai/backend/internal/middleware"
	tutorModel "github.com/gurukul-ai/backend/internal/model/tutor"
	tutorService "github.com/gurukul-ai/backend/internal/service/tutor"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Handler serves tutor CRUD.
type Handler struct {
	tutorSvc *tutorService.Service
}

// New creates the tutor handler.
func New(tutorSvc *tutorService.Service) *Handler {
	return &Handler{tutorSvc: tutorSvc}
}

// RegisterRoutes mounts the tutor routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tutors", h.handleCreate)
	r.Get("/tutors", h.handleList)
	r.Get("/tutors/{tutorID}", h.handleGet)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var payload struct {
		Avatar        string   `json:"avatar"`
		Name          string   `json:"name"`
		Subject       string   `json:"subject"`
		Personality   string   `json:"personality"`
		LearningStyle string   `json:"learningStyle"`
		Interests     []string `json:"interests"`
		Pace          string   `json:"pace"`
		Language      string   `json:"language"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Name == "" || payload.Subject == "" {
		utils.RespondError(w, http.StatusBadRequest, "name and subject are required")
		return
	}

	t, err := h.tutorSvc.Create(r.Context(), identity.UserID, tutorService.CreateInput{
		Avatar:        payload.Avatar,
		Name:          payload.Name,
		Subject:       payload.Subject,
		Personality:   tutorModel.Personality(payload.Personality),
		LearningStyle: tutorModel.LearningStyle(payload.LearningStyle),
		Interests:     payload.Interests,
		Pace:          tutorModel.Pace(payload.Pace),
		Language:      payload.Language,
	})
	if err != nil {
		switch {
		case errors.Is(err, tutorService.ErrTutorLimit):
			utils.RespondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, tutorService.ErrStudentMissing):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, tutorService.ErrUserNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "tutor creation failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	tutors, err := h.tutorSvc.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, tutorService.ErrStudentMissing) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, tutors)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.tutorSvc.Get(r.Context(), chi.URLParam(r, "tutorID"))
	if err != nil {
		if errors.Is(err, tutorService.ErrTutorNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, t)
}

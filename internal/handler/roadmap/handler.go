// Package roadmap exposes study-plan generation and confirmation.
package roadmap

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gurukul-ai/backend/internal/middleware"
	roadmapModel "github.com/gurukul-ai/backend/internal/model/roadmap"
	roadmapService "github.com/gurukul-ai/backend/internal/service/roadmap"
	tutorService "github.com/gurukul-ai/backend/internal/service/tutor"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Handler serves roadmap generation, confirmation, and retrieval.
type Handler struct {
	roadmapSvc *roadmapService.Service
	tutorSvc   *tutorService.Service
}

// New creates the roadmap handler.
func New(roadmapSvc *roadmapService.Service, tutorSvc *tutorService.Service) *Handler {
	return &Handler{roadmapSvc: roadmapSvc, tutorSvc: tutorSvc}
}

// RegisterRoutes mounts the roadmap routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/roadmaps/generate", h.handleGenerate)
	r.Post("/roadmaps/confirm", h.handleConfirm)
	r.Get("/roadmaps/{roadmapID}", h.handleGet)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TutorID      string `json:"tutorId"`
		Deadline     string `json:"deadline"`
		SyllabusText string `json:"syllabusText"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.TutorID == "" {
		utils.RespondError(w, http.StatusBadRequest, "tutorId is required")
		return
	}

	deadline, err := time.Parse("2006-01-02", payload.Deadline)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "deadline must be YYYY-MM-DD")
		return
	}
	if !deadline.After(time.Now()) {
		utils.RespondError(w, http.StatusBadRequest, "deadline must be in the future")
		return
	}

	t, err := h.tutorSvc.Get(r.Context(), payload.TutorID)
	if err != nil {
		if errors.Is(err, tutorService.ErrTutorNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "tutor lookup failed")
		return
	}

	rm, err := h.roadmapSvc.Generate(r.Context(), t, deadline, payload.SyllabusText)
	if err != nil {
		switch {
		case errors.Is(err, roadmapService.ErrSyllabusTooShort):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, roadmapService.ErrInvalidPlan):
			utils.RespondError(w, http.StatusBadGateway, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "roadmap generation failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, rm)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var payload struct {
		TutorID string               `json:"tutorId"`
		Roadmap roadmapModel.Roadmap `json:"roadmap"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.TutorID == "" {
		utils.RespondError(w, http.StatusBadRequest, "tutorId is required")
		return
	}

	if err := h.roadmapSvc.Confirm(r.Context(), identity.UserID, payload.TutorID, &payload.Roadmap); err != nil {
		switch {
		case errors.Is(err, roadmapService.ErrTutorNotFound):
			utils.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, roadmapService.ErrAlreadyConfirmed):
			utils.RespondError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "confirmation failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, payload.Roadmap)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rm, err := h.roadmapSvc.Get(r.Context(), chi.URLParam(r, "roadmapID"))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rm == nil {
		utils.RespondError(w, http.StatusNotFound, "roadmap not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, rm)
}

// Package auth exposes registration and login endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gurukul-ai/backend/internal/middleware"
	"github.com/gurukul-ai/backend/internal/model/user"
	authService "github.com/gurukul-ai/backend/internal/service/auth"
	"github.com/gurukul-ai/backend/internal/store"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Handler serves the auth endpoints.
type Handler struct {
	authSvc *authService.Service
	repo    store.Repository
}

// New creates the auth handler.
func New(authSvc *authService.Service, repo store.Repository) *Handler {
	return &Handler{authSvc: authSvc, repo: repo}
}

// RegisterRoutes mounts the public auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtectedRoutes mounts routes that need a valid token.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		StudentEmail string `json:"studentEmail"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	role := user.Role(payload.Role)
	if !role.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "role must be student or parent")
		return
	}

	u, token, err := h.authSvc.Register(r.Context(), authService.RegisterInput{
		Name:         payload.Name,
		Email:        payload.Email,
		Password:     payload.Password,
		Role:         role,
		StudentEmail: payload.StudentEmail,
	})
	if err != nil {
		switch {
		case errors.Is(err, authService.ErrEmailTaken):
			utils.RespondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, authService.ErrStudentNotFound):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{"user": u, "token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.authSvc.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": u, "token": token})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	u, err := h.repo.GetUser(r.Context(), identity.UserID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if u == nil {
		utils.RespondError(w, http.StatusNotFound, "user not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

// Package chat exposes chat management and the synchronous message
// endpoint that drives the tutoring loop.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gurukul-ai/backend/internal/middleware"
	chatModel "github.com/gurukul-ai/backend/internal/model/chat"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/service/ai"
	chatService "github.com/gurukul-ai/backend/internal/service/chat"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Notifier pushes chat lifecycle events to realtime listeners.
type Notifier interface {
	NotifyChatCreated(c *chatModel.Chat)
}

// Handler serves chat CRUD and message turns.
type Handler struct {
	chatSvc  *chatService.Service
	orch     *ai.Orchestrator
	notifier Notifier
}

// New creates the chat handler. notifier may be nil.
func New(chatSvc *chatService.Service, orch *ai.Orchestrator, notifier Notifier) *Handler {
	return &Handler{chatSvc: chatSvc, orch: orch, notifier: notifier}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chats", h.handleCreate)
	r.Get("/chats/user/{userID}", h.handleListByUser)
	r.Get("/chats/{chatID}", h.handleGet)
	r.Get("/chats/{chatID}/messages", h.handleListMessages)
	r.Post("/chats/{chatID}/messages", h.handleSendMessage)
	r.Delete("/chats/{chatID}/messages", h.handleClearHistory)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var payload struct {
		Name      string `json:"name"`
		TutorID   string `json:"tutorId"`
		StudentID string `json:"studentId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	studentID := payload.StudentID
	if studentID == "" {
		studentID = identity.UserID
	}

	c, err := h.chatSvc.CreateChat(r.Context(), payload.Name, identity.UserID, payload.TutorID, studentID)
	if err != nil {
		if errors.Is(err, chatService.ErrTutorRequired) || errors.Is(err, chatService.ErrUserRequired) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "chat creation failed")
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyChatCreated(c)
	}

	utils.RespondJSON(w, http.StatusCreated, c)
}

// ownedChat loads the chat and verifies it belongs to the requesting
// user. On failure it writes the response and reports false.
func (h *Handler) ownedChat(w http.ResponseWriter, r *http.Request) (middleware.Identity, *chatModel.Chat, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return middleware.Identity{}, nil, false
	}

	c, err := h.chatSvc.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		if errors.Is(err, chatService.ErrChatNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return middleware.Identity{}, nil, false
		}
		utils.RespondError(w, http.StatusInternalServerError, "lookup failed")
		return middleware.Identity{}, nil, false
	}

	if c.UserID != identity.UserID {
		utils.RespondError(w, http.StatusForbidden, "chat belongs to another user")
		return middleware.Identity{}, nil, false
	}
	return identity, c, true
}

func (h *Handler) handleListByUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if chi.URLParam(r, "userID") != identity.UserID {
		utils.RespondError(w, http.StatusForbidden, "chats belong to another user")
		return
	}

	chats, err := h.chatSvc.ListChats(r.Context(), identity.UserID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, chats)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}

	messages, err := h.chatSvc.LoadTranscript(r.Context(), c.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "transcript load failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSendMessage persists the user's turn, runs the model turn, and
// persists the tutor's reply. A degraded model turn still produces a
// stored reply and a 200; only missing records fail the request.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	identity, c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}

	var payload struct {
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Content == "" {
		utils.RespondError(w, http.StatusBadRequest, "content is required")
		return
	}

	userMsg, err := h.chatSvc.SaveMessage(r.Context(), c.ID, identity.UserID, chatModel.SenderUser, payload.Content)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "message save failed")
		return
	}

	reply, err := h.orch.ProcessMessage(r.Context(), payload.Content, c.UserID, c.TutorID, user.Role(identity.Role))
	if err != nil {
		if errors.Is(err, ai.ErrUserNotFound) || errors.Is(err, ai.ErrTutorNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "message processing failed")
		return
	}

	tutorMsg, err := h.chatSvc.SaveMessage(r.Context(), c.ID, c.TutorID, chatModel.SenderTutor, reply.Text)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "reply save failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"userMessage":  userMsg,
		"tutorMessage": tutorMsg,
		"outcome":      reply.Outcome.String(),
	})
}

// handleClearHistory wipes the transcript and evicts the cached model
// session so the next message rebuilds context from scratch.
func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}

	if _, err := h.chatSvc.ClearHistory(r.Context(), c.ID); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "clear failed")
		return
	}

	h.orch.ClearSession(c.UserID, c.TutorID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

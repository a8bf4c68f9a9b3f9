package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatModel "github.com/gurukul-ai/backend/internal/model/chat"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/service/ai"
	authService "github.com/gurukul-ai/backend/internal/service/auth"
	chatService "github.com/gurukul-ai/backend/internal/service/chat"
	"github.com/gurukul-ai/backend/pkg/utils"
)

// Socket event names shared with the web client.
const (
	eventJoinRoom       = "join-room"
	eventLeaveRoom      = "leave-room"
	eventSendMessage    = "send-message"
	eventReceiveMessage = "receive-message"
	eventTutorTyping    = "tutor-typing"
	eventChatCreated    = "chat-created"
	eventError          = "error"
)

type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingEvent struct {
	Type      string `json:"type"`
	Room      string `json:"room,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newEvent(eventType, room string, data any) outgoingEvent {
	return outgoingEvent{
		Type:      eventType,
		Room:      room,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Handler upgrades connections and routes socket events.
type Handler struct {
	hub      *Hub
	chatSvc  *chatService.Service
	orch     *ai.Orchestrator
	authSvc  *authService.Service
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// New creates the websocket handler.
func New(hub *Hub, chatSvc *chatService.Service, orch *ai.Orchestrator, authSvc *authService.Service, log *zap.Logger) *Handler {
	return &Handler{
		hub:     hub,
		chatSvc: chatSvc,
		orch:    orch,
		authSvc: authSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log.Named("ws"),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleConnection)
}

// handleConnection authenticates via the token query parameter, since
// browsers cannot set headers on websocket upgrades.
func (h *Handler) handleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := h.authSvc.Verify(token)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, claims.Subject, claims.Role)
	go c.writePump()
	h.readLoop(r.Context(), c)
}

func (h *Handler) readLoop(ctx context.Context, c *client) {
	defer func() {
		h.hub.drop(c)
		c.close()
	}()

	for {
		var event inboundEvent
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.String("userId", c.userID), zap.Error(err))
			}
			return
		}
		h.dispatch(ctx, c, event)
	}
}

func (h *Handler) dispatch(ctx context.Context, c *client, event inboundEvent) {
	switch event.Type {
	case eventJoinRoom:
		var data struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.Room == "" {
			h.sendError(c, "", "room is required")
			return
		}
		h.hub.join(data.Room, c)

	case eventLeaveRoom:
		var data struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.Room == "" {
			h.sendError(c, "", "room is required")
			return
		}
		h.hub.leave(data.Room, c)

	case eventSendMessage:
		h.handleSendMessage(ctx, c, event.Data)

	default:
		h.sendError(c, "", "unknown event type")
	}
}

// handleSendMessage persists the turn, echoes it to the room, and runs
// the AI reply in the background so the read loop stays responsive.
func (h *Handler) handleSendMessage(ctx context.Context, c *client, raw json.RawMessage) {
	var data struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &data); err != nil || data.ChatID == "" || data.Content == "" {
		h.sendError(c, "", "chatId and content are required")
		return
	}

	chatRecord, err := h.chatSvc.GetChat(ctx, data.ChatID)
	if err != nil {
		h.sendError(c, data.ChatID, "chat not found")
		return
	}
	if chatRecord.UserID != c.userID {
		h.sendError(c, data.ChatID, "chat belongs to another user")
		return
	}

	userMsg, err := h.chatSvc.SaveMessage(ctx, data.ChatID, c.userID, chatModel.SenderUser, data.Content)
	if err != nil {
		h.log.Error("ws message save failed", zap.String("chatId", data.ChatID), zap.Error(err))
		h.sendError(c, data.ChatID, "message save failed")
		return
	}

	h.hub.Broadcast(data.ChatID, newEvent(eventReceiveMessage, data.ChatID, userMsg))
	h.hub.Broadcast(data.ChatID, newEvent(eventTutorTyping, data.ChatID, map[string]bool{"typing": true}))

	go h.processReply(chatRecord, data.Content, c.role)
}

// processReply runs the model turn detached from the socket's request
// context: the reply must land in the room even if the sender drops.
func (h *Handler) processReply(chatRecord *chatModel.Chat, content, role string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	defer h.hub.Broadcast(chatRecord.ID, newEvent(eventTutorTyping, chatRecord.ID, map[string]bool{"typing": false}))

	reply, err := h.orch.ProcessMessage(ctx, content, chatRecord.UserID, chatRecord.TutorID, user.Role(role))
	if err != nil {
		h.log.Error("ws turn failed", zap.String("chatId", chatRecord.ID), zap.Error(err))
		h.hub.Broadcast(chatRecord.ID, newEvent(eventError, chatRecord.ID, map[string]string{"message": "message processing failed"}))
		return
	}

	tutorMsg, err := h.chatSvc.SaveMessage(ctx, chatRecord.ID, chatRecord.TutorID, chatModel.SenderTutor, reply.Text)
	if err != nil {
		h.log.Error("ws reply save failed", zap.String("chatId", chatRecord.ID), zap.Error(err))
		h.hub.Broadcast(chatRecord.ID, newEvent(eventError, chatRecord.ID, map[string]string{"message": "reply save failed"}))
		return
	}

	h.hub.Broadcast(chatRecord.ID, newEvent(eventReceiveMessage, chatRecord.ID, tutorMsg))
}

// NotifyChatCreated tells room members a new chat exists. The HTTP
// create endpoint calls this so socket clients can refresh their list.
func (h *Handler) NotifyChatCreated(c *chatModel.Chat) {
	h.hub.Broadcast(c.UserID, newEvent(eventChatCreated, c.UserID, c))
}

func (h *Handler) sendError(c *client, room, message string) {
	c.trySend(newEvent(eventError, room, map[string]string{"message": message}))
}

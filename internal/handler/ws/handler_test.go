package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/service/ai"
	authService "github.com/gurukul-ai/backend/internal/service/auth"
	chatService "github.com/gurukul-ai/backend/internal/service/chat"
	"github.com/gurukul-ai/backend/internal/store"
)

// scriptedGateway replays canned model outputs in order.
type scriptedGateway struct {
	responses []string
}

func (g *scriptedGateway) next() (string, error) {
	if len(g.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	out := g.responses[0]
	g.responses = g.responses[1:]
	return out, nil
}

func (g *scriptedGateway) NewConversation(context.Context, string, map[string]any) (ai.Conversation, error) {
	return scriptedConversation{g}, nil
}

func (g *scriptedGateway) GenerateOnce(context.Context, string, map[string]any) (string, error) {
	return g.next()
}

type scriptedConversation struct{ g *scriptedGateway }

func (c scriptedConversation) Send(context.Context, string) (string, error) {
	return c.g.next()
}

type wsEnv struct {
	server *httptest.Server
	token  string
	chatID string
}

func newWSEnv(t *testing.T, gateway ai.Gateway) *wsEnv {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "ws.db"))
	if err != nil {
		t.Fatalf("NewSQLite err: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	authSvc := authService.NewService(repo, "test-secret")
	u, token, err := authSvc.Register(context.Background(), authService.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "pw123456", Role: user.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}

	if err := repo.CreateTutor(context.Background(), &tutor.Tutor{
		ID: "tut1", StudentID: u.ID, Name: "Pixel", Subject: "Physics",
		Personality: tutor.PersonalityFriendly, Pace: tutor.PaceMedium,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateTutor err: %v", err)
	}

	chatSvc := chatService.NewService(repo)
	c, err := chatSvc.CreateChat(context.Background(), "", u.ID, "tut1", u.ID)
	if err != nil {
		t.Fatalf("CreateChat err: %v", err)
	}

	orch, err := ai.NewOrchestrator(repo, gateway, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOrchestrator err: %v", err)
	}

	h := New(NewHub(), chatSvc, orch, authSvc, zap.NewNop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &wsEnv{server: server, token: token, chatID: c.ID}
}

func (e *wsEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) outgoingEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event struct {
		Type string          `json:"type"`
		Room string          `json:"room"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return outgoingEvent{Type: event.Type, Room: event.Room, Data: event.Data}
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := conn.WriteJSON(inboundEvent{Type: eventType, Data: raw}); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func TestConnectionRejectsBadToken(t *testing.T) {
	env := newWSEnv(t, &scriptedGateway{})

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a valid token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestSendMessageStreamsFullTurn(t *testing.T) {
	gateway := &scriptedGateway{responses: []string{
		`{"message":"Gravity pulls things together!","requireTools":{"isAccessToToolsRequired":false}}`,
	}}
	env := newWSEnv(t, gateway)
	conn := env.dial(t, env.token)

	send(t, conn, eventJoinRoom, map[string]string{"room": env.chatID})
	send(t, conn, eventSendMessage, map[string]string{"chatId": env.chatID, "content": "what is gravity?"})

	first := readEvent(t, conn)
	if first.Type != eventReceiveMessage {
		t.Fatalf("expected user echo first, got %q", first.Type)
	}

	typing := readEvent(t, conn)
	if typing.Type != eventTutorTyping {
		t.Fatalf("expected typing indicator, got %q", typing.Type)
	}

	reply := readEvent(t, conn)
	if reply.Type != eventReceiveMessage {
		t.Fatalf("expected tutor reply, got %q", reply.Type)
	}
	var msg struct {
		Content    string `json:"content"`
		SenderType string `json:"senderType"`
	}
	if err := json.Unmarshal(reply.Data.(json.RawMessage), &msg); err != nil {
		t.Fatalf("decode reply payload: %v", err)
	}
	if msg.SenderType != "tutor" || msg.Content != "Gravity pulls things together!" {
		t.Fatalf("unexpected tutor message: %+v", msg)
	}

	done := readEvent(t, conn)
	if done.Type != eventTutorTyping {
		t.Fatalf("expected typing-off event last, got %q", done.Type)
	}
}

func TestSendMessageUnknownChatErrors(t *testing.T) {
	env := newWSEnv(t, &scriptedGateway{})
	conn := env.dial(t, env.token)

	send(t, conn, eventSendMessage, map[string]string{"chatId": "ghost", "content": "hi"})

	event := readEvent(t, conn)
	if event.Type != eventError {
		t.Fatalf("expected error event, got %q", event.Type)
	}
}

func TestJoinRequiresRoom(t *testing.T) {
	env := newWSEnv(t, &scriptedGateway{})
	conn := env.dial(t, env.token)

	send(t, conn, eventJoinRoom, map[string]string{})

	event := readEvent(t, conn)
	if event.Type != eventError {
		t.Fatalf("expected error event, got %q", event.Type)
	}
}

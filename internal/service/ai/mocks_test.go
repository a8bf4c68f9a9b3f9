package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gurukul-ai/backend/internal/model/chat"
	"github.com/gurukul-ai/backend/internal/model/roadmap"
	"github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/store"
)

// stubConversation satisfies Conversation for cache tests.
type stubConversation struct{}

func (s *stubConversation) Send(context.Context, string) (string, error) {
	return "", nil
}

// scriptGateway replays canned responses in order. Each Send pops the
// next entry; a func entry can fail instead of answering.
type scriptGateway struct {
	mu            sync.Mutex
	script        []func() (string, error)
	conversations int
	sent          []string
}

func respond(raw string) func() (string, error) {
	return func() (string, error) { return raw, nil }
}

func fail(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

func (g *scriptGateway) next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.script) == 0 {
		return "", errors.New("script exhausted")
	}
	step := g.script[0]
	g.script = g.script[1:]
	return step()
}

func (g *scriptGateway) NewConversation(context.Context, string, map[string]any) (Conversation, error) {
	g.mu.Lock()
	g.conversations++
	g.mu.Unlock()
	return &scriptConversation{gateway: g}, nil
}

func (g *scriptGateway) GenerateOnce(context.Context, string, map[string]any) (string, error) {
	return g.next()
}

type scriptConversation struct {
	gateway *scriptGateway
}

func (c *scriptConversation) Send(_ context.Context, text string) (string, error) {
	c.gateway.mu.Lock()
	c.gateway.sent = append(c.gateway.sent, text)
	c.gateway.mu.Unlock()
	return c.gateway.next()
}

// fakeRepo is an in-memory store.Repository for orchestrator tests.
type fakeRepo struct {
	users    map[string]*user.User
	tutors   map[string]*tutor.Tutor
	tasks    []*task.Task
	roadmaps map[string]*roadmap.Roadmap

	listTaskCalls   int
	lastTaskFilter  store.TaskFilter
	listTasksErr    error
	getRoadmapErr   error
	getRoadmapCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]*user.User),
		tutors:   make(map[string]*tutor.Tutor),
		roadmaps: make(map[string]*roadmap.Roadmap),
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, u *user.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (*user.User, error) {
	return f.users[id], nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateStreak(_ context.Context, userID string, current, longest int, lastActivity time.Time) error {
	if u, ok := f.users[userID]; ok {
		u.CurrentStreak = current
		u.LongestStreak = longest
		u.LastActivity = lastActivity
	}
	return nil
}

func (f *fakeRepo) ResetStaleStreaks(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) CreateTutor(_ context.Context, t *tutor.Tutor) error {
	f.tutors[t.ID] = t
	return nil
}

func (f *fakeRepo) GetTutor(_ context.Context, id string) (*tutor.Tutor, error) {
	return f.tutors[id], nil
}

func (f *fakeRepo) ListTutorsByStudent(_ context.Context, studentID string) ([]*tutor.Tutor, error) {
	var out []*tutor.Tutor
	for _, t := range f.tutors {
		if t.StudentID == studentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetTutorRoadmap(_ context.Context, tutorID, roadmapID string) error {
	if t, ok := f.tutors[tutorID]; ok {
		t.RoadmapID = roadmapID
	}
	return nil
}

func (f *fakeRepo) SetTutorChat(_ context.Context, tutorID, chatID string) error {
	if t, ok := f.tutors[tutorID]; ok {
		t.ChatID = chatID
	}
	return nil
}

func (f *fakeRepo) CreateTask(_ context.Context, t *task.Task) error {
	f.tasks = append(f.tasks, t)
	return nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (*task.Task, error) {
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListTasks(_ context.Context, filter store.TaskFilter) ([]*task.Task, error) {
	f.listTaskCalls++
	f.lastTaskFilter = filter
	if f.listTasksErr != nil {
		return nil, f.listTasksErr
	}
	var out []*task.Task
	for _, t := range f.tasks {
		if filter.UserID != "" && t.UserID != filter.UserID {
			continue
		}
		if filter.TutorID != "" && t.TutorID != filter.TutorID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) UpdateTaskStatus(_ context.Context, id string, status task.Status) error {
	for _, t := range f.tasks {
		if t.ID == id {
			t.Status = status
		}
	}
	return nil
}

func (f *fakeRepo) CreateRoadmap(_ context.Context, r *roadmap.Roadmap) error {
	f.roadmaps[r.ID] = r
	return nil
}

func (f *fakeRepo) GetRoadmap(_ context.Context, id string) (*roadmap.Roadmap, error) {
	f.getRoadmapCalls++
	if f.getRoadmapErr != nil {
		return nil, f.getRoadmapErr
	}
	return f.roadmaps[id], nil
}

func (f *fakeRepo) CreateChat(context.Context, *chat.Chat) error          { return nil }
func (f *fakeRepo) GetChat(context.Context, string) (*chat.Chat, error)  { return nil, nil }
func (f *fakeRepo) ListChatsByUser(context.Context, string) ([]*chat.Chat, error) {
	return nil, nil
}
func (f *fakeRepo) TouchChat(context.Context, string) error                     { return nil }
func (f *fakeRepo) AppendMessage(context.Context, *chat.Message) error          { return nil }
func (f *fakeRepo) ListMessages(context.Context, string) ([]*chat.Message, error) {
	return nil, nil
}
func (f *fakeRepo) ClearMessages(context.Context, string) error { return nil }
func (f *fakeRepo) Ping(context.Context) error                  { return nil }
func (f *fakeRepo) Close() error                                { return nil }

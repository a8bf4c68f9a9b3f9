// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/gurukul-ai/backend/internal/model/chat"
	"github.com/gurukul-ai/backend/internal/model/roadmap"
	"github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
)

// TaskFilter narrows task queries. Zero-value fields are ignored;
// Date scopes the query to a single calendar day.
type TaskFilter struct {
	UserID  string
	TutorID string
	Date    *task.DateParts
	Status  task.Status
	Limit   int
}

// Repository defines the persistence surface for the tutoring backend.
// Lookups return (nil, nil) when the record does not exist.
type Repository interface {
	// Users.
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateStreak(ctx context.Context, userID string, current, longest int, lastActivity time.Time) error
	ResetStaleStreaks(ctx context.Context, before time.Time) (int64, error)

	// Tutors.
	CreateTutor(ctx context.Context, t *tutor.Tutor) error
	GetTutor(ctx context.Context, id string) (*tutor.Tutor, error)
	ListTutorsByStudent(ctx context.Context, studentID string) ([]*tutor.Tutor, error)
	SetTutorRoadmap(ctx context.Context, tutorID, roadmapID string) error
	SetTutorChat(ctx context.Context, tutorID, chatID string) error

	// Tasks.
	CreateTask(ctx context.Context, t *task.Task) error
	GetTask(ctx context.Context, id string) (*task.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status task.Status) error

	// Roadmaps.
	CreateRoadmap(ctx context.Context, r *roadmap.Roadmap) error
	GetRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error)

	// Chats and messages.
	CreateChat(ctx context.Context, c *chat.Chat) error
	GetChat(ctx context.Context, id string) (*chat.Chat, error)
	ListChatsByUser(ctx context.Context, userID string) ([]*chat.Chat, error)
	TouchChat(ctx context.Context, chatID string) error
	AppendMessage(ctx context.Context, m *chat.Message) error
	ListMessages(ctx context.Context, chatID string) ([]*chat.Message, error)
	ClearMessages(ctx context.Context, chatID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

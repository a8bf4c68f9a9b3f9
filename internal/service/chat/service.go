package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gurukul-ai/backend/internal/model/chat"
	"github.com/gurukul-ai/backend/internal/store"
)

var (
	ErrTutorRequired = errors.New("tutor id is required")
	ErrUserRequired  = errors.New("user id is required")
	ErrChatNotFound  = errors.New("chat not found")
)

// Service encapsulates chat and transcript persistence.
type Service struct {
	repo store.Repository
}

// NewService creates the store-backed chat service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// CreateChat provisions a chat between an account and a tutor.
func (s *Service) CreateChat(ctx context.Context, name, userID, tutorID, studentID string) (*chat.Chat, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if tutorID == "" {
		return nil, ErrTutorRequired
	}

	if name == "" {
		name = userID + "-" + tutorID
	}

	now := time.Now().UTC()
	c := &chat.Chat{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		StudentID: studentID,
		TutorID:   tutorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateChat(ctx, c); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	// First chat with a tutor becomes its primary chat reference.
	if t, err := s.repo.GetTutor(ctx, tutorID); err == nil && t != nil && t.ChatID == "" {
		_ = s.repo.SetTutorChat(ctx, tutorID, c.ID)
	}

	return c, nil
}

// GetChat retrieves a chat by identifier.
func (s *Service) GetChat(ctx context.Context, chatID string) (*chat.Chat, error) {
	c, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChatNotFound
	}
	return c, nil
}

// ListChats returns a user's chats, most recently active first.
func (s *Service) ListChats(ctx context.Context, userID string) ([]*chat.Chat, error) {
	return s.repo.ListChatsByUser(ctx, userID)
}

// SaveMessage appends a turn to the chat transcript and bumps the
// chat's activity stamp.
func (s *Service) SaveMessage(ctx context.Context, chatID, senderID string, senderType chat.SenderType, content string) (*chat.Message, error) {
	c, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChatNotFound
	}

	m := &chat.Message{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		SenderID:   senderID,
		SenderType: senderType,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	_ = s.repo.TouchChat(ctx, chatID)

	return m, nil
}

// LoadTranscript returns stored messages for the provided chat.
func (s *Service) LoadTranscript(ctx context.Context, chatID string) ([]*chat.Message, error) {
	c, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChatNotFound
	}
	return s.repo.ListMessages(ctx, chatID)
}

// ClearHistory deletes a chat's transcript. The caller is responsible
// for evicting the matching model session.
func (s *Service) ClearHistory(ctx context.Context, chatID string) (*chat.Chat, error) {
	c, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChatNotFound
	}
	if err := s.repo.ClearMessages(ctx, chatID); err != nil {
		return nil, err
	}
	return c, nil
}

// Package tutor manages AI tutor personas.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/store"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTutorNotFound  = errors.New("tutor not found")
	ErrTutorLimit     = errors.New("tutor limit reached for subscription tier")
	ErrStudentMissing = errors.New("parent account has no linked student")
)

// tierLimits caps how many tutors each subscription tier may create.
// Premium is uncapped.
var tierLimits = map[user.Tier]int{
	user.TierFree:  1,
	user.TierBasic: 5,
}

// Service creates and lists tutor personas.
type Service struct {
	repo store.Repository
}

// NewService creates the tutor service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is the payload for tutor creation.
type CreateInput struct {
	Avatar        string
	Name          string
	Subject       string
	Personality   tutor.Personality
	LearningStyle tutor.LearningStyle
	Interests     []string
	Pace          tutor.Pace
	Language      string
}

// Create provisions a tutor for the caller's student, enforcing the
// subscription tier's tutor cap. Parents create tutors for their
// linked student.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (*tutor.Tutor, error) {
	caller, err := s.repo.GetUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if caller == nil {
		return nil, ErrUserNotFound
	}

	studentID := caller.ID
	if caller.Role == user.RoleParent {
		if caller.StudentID == "" {
			return nil, ErrStudentMissing
		}
		studentID = caller.StudentID
	}

	if limit, capped := tierLimits[caller.SubscriptionTier]; capped {
		existing, err := s.repo.ListTutorsByStudent(ctx, studentID)
		if err != nil {
			return nil, fmt.Errorf("count tutors: %w", err)
		}
		if len(existing) >= limit {
			return nil, ErrTutorLimit
		}
	}

	if in.Pace == "" {
		in.Pace = tutor.PaceMedium
	}
	if in.Language == "" {
		in.Language = "English"
	}

	t := &tutor.Tutor{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		Avatar:        in.Avatar,
		Name:          in.Name,
		Subject:       in.Subject,
		Personality:   in.Personality.Normalize(),
		LearningStyle: in.LearningStyle,
		Interests:     in.Interests,
		Pace:          in.Pace,
		Language:      in.Language,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateTutor(ctx, t); err != nil {
		return nil, fmt.Errorf("create tutor: %w", err)
	}
	return t, nil
}

// Get retrieves one tutor.
func (s *Service) Get(ctx context.Context, id string) (*tutor.Tutor, error) {
	t, err := s.repo.GetTutor(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTutorNotFound
	}
	return t, nil
}

// ListForUser returns the tutors visible to an account: a student's
// own tutors, or for a parent the linked student's tutors.
func (s *Service) ListForUser(ctx context.Context, callerID string) ([]*tutor.Tutor, error) {
	caller, err := s.repo.GetUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if caller == nil {
		return nil, ErrUserNotFound
	}

	studentID := caller.ID
	if caller.Role == user.RoleParent {
		if caller.StudentID == "" {
			return nil, ErrStudentMissing
		}
		studentID = caller.StudentID
	}
	return s.repo.ListTutorsByStudent(ctx, studentID)
}

// Package task lists and updates scheduled study tasks.
package task

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/service/streak"
	"github.com/gurukul-ai/backend/internal/store"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidStatus = errors.New("invalid task status")
)

// Service exposes task queries and status changes.
type Service struct {
	repo    store.Repository
	streaks *streak.Service
	log     *zap.Logger
}

// NewService wires the task service. Completing a task counts as study
// activity, so the streak service is touched on completion.
func NewService(repo store.Repository, streaks *streak.Service, log *zap.Logger) *Service {
	return &Service{repo: repo, streaks: streaks, log: log.Named("task")}
}

// Grouped nests tasks year → month → day for calendar rendering.
type Grouped map[string]map[string]map[string][]*task.Task

// ListGrouped returns a user's tasks for a tutor, grouped by calendar
// day, alongside today's date parts so the client can focus the view.
func (s *Service) ListGrouped(ctx context.Context, filter store.TaskFilter) (Grouped, error) {
	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	grouped := make(Grouped)
	for _, t := range tasks {
		months, ok := grouped[t.Year]
		if !ok {
			months = make(map[string]map[string][]*task.Task)
			grouped[t.Year] = months
		}
		days, ok := months[t.Month]
		if !ok {
			days = make(map[string][]*task.Task)
			months[t.Month] = days
		}
		days[t.Day] = append(days[t.Day], t)
	}
	return grouped, nil
}

// UpdateStatus transitions a task and, on completion, records study
// activity for the task's owner. Streak failures never fail the
// status change.
func (s *Service) UpdateStatus(ctx context.Context, taskID string, status task.Status) (*task.Task, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("lookup task: %w", err)
	}
	if t == nil {
		return nil, ErrTaskNotFound
	}

	if err := s.repo.UpdateTaskStatus(ctx, taskID, status); err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	t.Status = status

	if status == task.StatusCompleted {
		if err := s.streaks.TouchActivity(ctx, t.UserID); err != nil {
			s.log.Error("streak touch failed", zap.String("userId", t.UserID), zap.Error(err))
		}
	}
	return t, nil
}

package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	taskModel "github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/service/streak"
	"github.com/gurukul-ai/backend/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "task.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, streak.NewService(repo, zap.NewNop()), zap.NewNop()), repo
}

func seedTask(t *testing.T, repo store.Repository, id, year, month, day string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.CreateTask(context.Background(), &taskModel.Task{
		ID: id, UserID: "u1", TutorID: "t1", Title: "Task " + id,
		Status: taskModel.StatusPending, Year: year, Month: month, Day: day,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestListGrouped(t *testing.T) {
	svc, repo := newTestService(t)

	seedTask(t, repo, "a", "2026", "03", "14")
	seedTask(t, repo, "b", "2026", "03", "14")
	seedTask(t, repo, "c", "2026", "04", "01")

	grouped, err := svc.ListGrouped(context.Background(), store.TaskFilter{UserID: "u1"})
	require.NoError(t, err)

	require.Contains(t, grouped, "2026")
	assert.Len(t, grouped["2026"]["03"]["14"], 2)
	assert.Len(t, grouped["2026"]["04"]["01"], 1)
}

func TestUpdateStatusTouchesStreak(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, repo.CreateUser(ctx, &user.User{
		ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: "hash",
		Role: user.RoleStudent, LastActivity: yesterday,
		CreatedAt: yesterday, UpdatedAt: yesterday,
	}))
	seedTask(t, repo, "a", "2026", "03", "14")

	updated, err := svc.UpdateStatus(ctx, "a", taskModel.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, taskModel.StatusCompleted, updated.Status)

	u, _ := repo.GetUser(ctx, "u1")
	assert.Equal(t, 1, u.CurrentStreak, "completion counts as study activity")
}

func TestUpdateStatusInProgressSkipsStreak(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, repo.CreateUser(ctx, &user.User{
		ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: "hash",
		Role: user.RoleStudent, LastActivity: old, CreatedAt: old, UpdatedAt: old,
	}))
	seedTask(t, repo, "a", "2026", "03", "14")

	_, err := svc.UpdateStatus(ctx, "a", taskModel.StatusInProgress)
	require.NoError(t, err)

	u, _ := repo.GetUser(ctx, "u1")
	assert.Equal(t, 0, u.CurrentStreak)
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedTask(t, repo, "a", "2026", "03", "14")

	_, err := svc.UpdateStatus(ctx, "a", taskModel.Status("Done"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, "ghost", taskModel.StatusCompleted)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

package tutor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tutorModel "github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "tutor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo), repo
}

func seedUser(t *testing.T, repo store.Repository, id string, role user.Role, tier user.Tier, studentID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.CreateUser(context.Background(), &user.User{
		ID: id, Name: "User " + id, Email: id + "@example.com", PasswordHash: "hash",
		Role: role, SubscriptionTier: tier, StudentID: studentID,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "stu1", user.RoleStudent, user.TierPremium, "")

	created, err := svc.Create(context.Background(), "stu1", CreateInput{
		Name: "Pixel", Subject: "Physics", Personality: tutorModel.Personality("sassy"),
	})
	require.NoError(t, err)

	assert.Equal(t, "stu1", created.StudentID)
	assert.Equal(t, tutorModel.PersonalityDefault, created.Personality, "unknown personality normalizes")
	assert.Equal(t, tutorModel.PaceMedium, created.Pace)
	assert.Equal(t, "English", created.Language)
}

func TestParentCreatesForLinkedStudent(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "stu1", user.RoleStudent, user.TierPremium, "")
	seedUser(t, repo, "par1", user.RoleParent, user.TierPremium, "stu1")

	created, err := svc.Create(context.Background(), "par1", CreateInput{
		Name: "Pixel", Subject: "Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu1", created.StudentID, "tutor belongs to the linked student")

	listed, err := svc.ListForUser(context.Background(), "par1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestParentWithoutStudentRejected(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "par1", user.RoleParent, user.TierFree, "")

	_, err := svc.Create(context.Background(), "par1", CreateInput{Name: "Pixel", Subject: "Physics"})
	assert.ErrorIs(t, err, ErrStudentMissing)

	_, err = svc.ListForUser(context.Background(), "par1")
	assert.ErrorIs(t, err, ErrStudentMissing)
}

func TestTierCaps(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedUser(t, repo, "free1", user.RoleStudent, user.TierFree, "")
	_, err := svc.Create(ctx, "free1", CreateInput{Name: "A", Subject: "Maths"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "free1", CreateInput{Name: "B", Subject: "Maths"})
	assert.ErrorIs(t, err, ErrTutorLimit)

	seedUser(t, repo, "prem1", user.RoleStudent, user.TierPremium, "")
	for i := 0; i < 8; i++ {
		_, err := svc.Create(ctx, "prem1", CreateInput{Name: "T", Subject: "Maths"})
		require.NoError(t, err, "premium is uncapped")
	}
}

func TestCreateUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "ghost", CreateInput{Name: "A", Subject: "B"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

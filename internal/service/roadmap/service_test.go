package roadmap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/model/roadmap"
	"github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/service/ai"
	"github.com/gurukul-ai/backend/internal/store"
)

// onceGateway serves a single canned GenerateOnce response.
type onceGateway struct {
	response string
	err      error
	prompt   string
}

func (g *onceGateway) NewConversation(context.Context, string, map[string]any) (ai.Conversation, error) {
	return nil, fmt.Errorf("not used")
}

func (g *onceGateway) GenerateOnce(_ context.Context, prompt string, _ map[string]any) (string, error) {
	g.prompt = prompt
	return g.response, g.err
}

const samplePlanJSON = `{
	"subject": "Physics",
	"roadmap": {
		"overview": "Welcome aboard!",
		"key_topics": [
			{"topic": "Kinematics", "priority": "High", "difficulty": "Medium",
			 "description": "Motion basics", "estimated_time": "4h"}
		],
		"weekly_study_plans": [
			{"week": 1, "dates": "Mar 14 - Mar 20", "goals": ["Finish kinematics"],
			 "milestones": ["Quiz 1"], "activities": [
				{"title": "Solve problems", "description": "Practice set", "estimated_time": "2h"}
			]}
		],
		"daily_study_plan": [
			{"date": "2026-03-14", "tasks": [
				{"title": "Read Ch.1", "description": "Intro", "estimated_time": "1h"},
				{"title": "Notes", "description": "Summarize", "estimated_time": "30m"}
			]},
			{"date": "2026-03-15", "tasks": [
				{"title": "Read Ch.2", "description": "Vectors", "estimated_time": "1h"}
			]}
		],
		"learning_strategies": {"spaced_repetition": true, "active_recall": true,
			"pomodoro": false, "notes": true, "group_study": false},
		"progress_tracking": {"completed_topics": [], "pending_topics": ["Kinematics"]}
	}
}`

func testTutor() *tutor.Tutor {
	return &tutor.Tutor{
		ID:            "t1",
		StudentID:     "u1",
		Name:          "Professor Pixel",
		Subject:       "Physics",
		LearningStyle: tutor.StyleVisual,
		Pace:          tutor.PaceMedium,
		CreatedAt:     time.Now().UTC(),
	}
}

func longSyllabus() string {
	return strings.Repeat("Chapter on kinematics, dynamics, and energy. ", 10)
}

func newTestService(t *testing.T, gw *onceGateway) (*Service, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "roadmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, gw, zap.NewNop()), repo
}

func TestGenerateParsesPlan(t *testing.T) {
	gw := &onceGateway{response: samplePlanJSON}
	svc, _ := newTestService(t, gw)

	deadline := time.Now().AddDate(0, 1, 0)
	rm, err := svc.Generate(context.Background(), testTutor(), deadline, longSyllabus())
	require.NoError(t, err)

	assert.Equal(t, "Physics", rm.Subject)
	assert.Equal(t, "Welcome aboard!", rm.Plan.Overview)
	require.Len(t, rm.Plan.DailyStudyPlan, 2)
	assert.Len(t, rm.Plan.DailyStudyPlan[0].Tasks, 2)
	assert.Equal(t, 14, rm.Plan.DailyStudyPlan[0].Date.Day())

	assert.Contains(t, gw.prompt, "kinematics")
	assert.Contains(t, gw.prompt, "visual")
}

func TestGenerateRepairsBrokenJSON(t *testing.T) {
	// Trailing comma the repair pass must handle.
	broken := strings.Replace(samplePlanJSON, `"group_study": false}`, `"group_study": false,}`, 1)
	gw := &onceGateway{response: broken}
	svc, _ := newTestService(t, gw)

	rm, err := svc.Generate(context.Background(), testTutor(), time.Now().AddDate(0, 1, 0), longSyllabus())
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard!", rm.Plan.Overview)
}

func TestGenerateFillsDefaultOverview(t *testing.T) {
	noOverview := strings.Replace(samplePlanJSON, `"overview": "Welcome aboard!",`, `"overview": "",`, 1)
	gw := &onceGateway{response: noOverview}
	svc, _ := newTestService(t, gw)

	rm, err := svc.Generate(context.Background(), testTutor(), time.Now().AddDate(0, 1, 0), longSyllabus())
	require.NoError(t, err)
	assert.Contains(t, rm.Plan.Overview, "Professor Pixel")
	assert.Contains(t, rm.Plan.Overview, "Physics")
}

func TestGenerateRejectsShortSyllabus(t *testing.T) {
	svc, _ := newTestService(t, &onceGateway{response: samplePlanJSON})

	_, err := svc.Generate(context.Background(), testTutor(), time.Now().AddDate(0, 1, 0), "too short")
	assert.ErrorIs(t, err, ErrSyllabusTooShort)
}

func TestGenerateUnparseablePlan(t *testing.T) {
	gw := &onceGateway{response: "I cannot produce a roadmap right now."}
	svc, _ := newTestService(t, gw)

	_, err := svc.Generate(context.Background(), testTutor(), time.Now().AddDate(0, 1, 0), longSyllabus())
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestConfirmFansOutTasks(t *testing.T) {
	gw := &onceGateway{response: samplePlanJSON}
	svc, repo := newTestService(t, gw)
	ctx := context.Background()

	tut := testTutor()
	require.NoError(t, repo.CreateTutor(ctx, tut))

	rm, err := svc.Generate(ctx, tut, time.Now().AddDate(0, 1, 0), longSyllabus())
	require.NoError(t, err)

	require.NoError(t, svc.Confirm(ctx, "u1", "t1", rm))

	tasks, err := repo.ListTasks(ctx, store.TaskFilter{UserID: "u1", TutorID: "t1"})
	require.NoError(t, err)
	assert.Len(t, tasks, 3, "one task row per daily-plan entry task")
	for _, tk := range tasks {
		assert.Equal(t, task.StatusPending, tk.Status)
		assert.Equal(t, "2026", tk.Year)
	}

	linked, _ := repo.GetTutor(ctx, "t1")
	assert.Equal(t, rm.ID, linked.RoadmapID)

	stored, err := repo.GetRoadmap(ctx, rm.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestConfirmRejectsSecondRoadmap(t *testing.T) {
	gw := &onceGateway{response: samplePlanJSON}
	svc, repo := newTestService(t, gw)
	ctx := context.Background()

	tut := testTutor()
	tut.RoadmapID = "existing"
	require.NoError(t, repo.CreateTutor(ctx, tut))

	err := svc.Confirm(ctx, "u1", "t1", &roadmap.Roadmap{ID: "rm2", Subject: "Physics"})
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestConfirmUnknownTutor(t *testing.T) {
	svc, _ := newTestService(t, &onceGateway{})

	err := svc.Confirm(context.Background(), "u1", "ghost", &roadmap.Roadmap{ID: "rm1"})
	assert.ErrorIs(t, err, ErrTutorNotFound)
}

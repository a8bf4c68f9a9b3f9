// Package roadmap turns extracted syllabus text into a structured
// study plan via the model gateway, and fans confirmed plans out into
// per-day task records.
package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/model/roadmap"
	"github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/service/ai"
	"github.com/gurukul-ai/backend/internal/store"
)

var (
	ErrSyllabusTooShort = errors.New("syllabus text too short or incomplete")
	ErrInvalidPlan      = errors.New("model produced an invalid study plan")
	ErrTutorNotFound    = errors.New("tutor not found")
	ErrAlreadyConfirmed = errors.New("roadmap is already saved")
)

// Syllabi below this length are almost always OCR noise or a wrong file.
const minSyllabusLength = 100

// Service generates and confirms study roadmaps.
type Service struct {
	repo    store.Repository
	gateway ai.Gateway
	log     *zap.Logger
}

// NewService wires the roadmap service.
func NewService(repo store.Repository, gateway ai.Gateway, log *zap.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, log: log.Named("roadmap")}
}

// Generate produces a roadmap draft from syllabus text. The result is
// not persisted; the client reviews it and calls Confirm.
func (s *Service) Generate(ctx context.Context, t *tutor.Tutor, deadline time.Time, syllabusText string) (*roadmap.Roadmap, error) {
	if len(syllabusText) < minSyllabusLength {
		return nil, ErrSyllabusTooShort
	}

	prompt := generationPrompt(t, deadline, syllabusText)

	raw, err := s.gateway.GenerateOnce(ctx, prompt, planSchema())
	if err != nil {
		return nil, fmt.Errorf("generate roadmap: %w", err)
	}

	plan, err := decodePlan(raw)
	if err != nil {
		s.log.Error("roadmap decode failed", zap.String("tutorId", t.ID), zap.Error(err))
		return nil, ErrInvalidPlan
	}

	if plan.Overview == "" {
		plan.Overview = defaultOverview(t)
	}

	return &roadmap.Roadmap{
		ID:        uuid.NewString(),
		Subject:   t.Subject,
		Deadline:  deadline,
		Plan:      *plan,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Confirm persists a reviewed roadmap, creates one task record per
// daily-plan entry, and links the roadmap to its tutor.
func (s *Service) Confirm(ctx context.Context, userID, tutorID string, r *roadmap.Roadmap) error {
	t, err := s.repo.GetTutor(ctx, tutorID)
	if err != nil {
		return fmt.Errorf("lookup tutor: %w", err)
	}
	if t == nil {
		return ErrTutorNotFound
	}
	if t.RoadmapID != "" {
		return ErrAlreadyConfirmed
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.CreateRoadmap(ctx, r); err != nil {
		return fmt.Errorf("persist roadmap: %w", err)
	}

	now := time.Now().UTC()
	for di, day := range r.Plan.DailyStudyPlan {
		parts := task.PartsOf(day.Date)
		for ti, planned := range day.Tasks {
			rec := &task.Task{
				ID:            uuid.NewString(),
				UserID:        userID,
				TutorID:       tutorID,
				Title:         planned.Title,
				Description:   planned.Description,
				EstimatedTime: planned.EstimatedTime,
				Status:        task.StatusPending,
				Year:          parts.Year,
				Month:         parts.Month,
				Day:           parts.Day,
				Time:          day.Date.Format(time.RFC3339),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.repo.CreateTask(ctx, rec); err != nil {
				return fmt.Errorf("create task for day %d: %w", di+1, err)
			}
			r.Plan.DailyStudyPlan[di].Tasks[ti].TaskID = rec.ID
			r.Plan.DailyStudyPlan[di].Tasks[ti].Status = string(task.StatusPending)
		}
	}

	if err := s.repo.SetTutorRoadmap(ctx, tutorID, r.ID); err != nil {
		return fmt.Errorf("link roadmap: %w", err)
	}
	return nil
}

// Get retrieves a persisted roadmap; nil means not found.
func (s *Service) Get(ctx context.Context, id string) (*roadmap.Roadmap, error) {
	return s.repo.GetRoadmap(ctx, id)
}

// wirePlan mirrors roadmap.Plan with string dates, which is what the
// model actually emits.
type wirePlan struct {
	Overview         string               `json:"overview"`
	KeyTopics        []roadmap.KeyTopic   `json:"key_topics"`
	WeeklyStudyPlans []roadmap.WeeklyPlan `json:"weekly_study_plans"`
	DailyStudyPlan   []struct {
		Date  string                `json:"date"`
		Tasks []roadmap.PlannedTask `json:"tasks"`
	} `json:"daily_study_plan"`
	LearningStrategies roadmap.Strategies `json:"learning_strategies"`
	ProgressTracking   roadmap.Progress   `json:"progress_tracking"`
}

type wireEnvelope struct {
	Subject string   `json:"subject"`
	Roadmap wirePlan `json:"roadmap"`
}

// decodePlan runs the same parse-then-repair ladder the chat decoder
// uses, but a plan that fails both tiers is an error rather than a
// fallback: there is no sensible degraded roadmap.
func decodePlan(raw string) (*roadmap.Plan, error) {
	var env wireEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, fmt.Errorf("repair roadmap JSON: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &env); err != nil {
			return nil, fmt.Errorf("parse repaired roadmap JSON: %w", err)
		}
	}

	plan := roadmap.Plan{
		Overview:           env.Roadmap.Overview,
		KeyTopics:          env.Roadmap.KeyTopics,
		WeeklyStudyPlans:   env.Roadmap.WeeklyStudyPlans,
		LearningStrategies: env.Roadmap.LearningStrategies,
		ProgressTracking:   env.Roadmap.ProgressTracking,
	}

	for _, day := range env.Roadmap.DailyStudyPlan {
		date, err := parseDate(day.Date)
		if err != nil {
			return nil, fmt.Errorf("daily plan date %q: %w", day.Date, err)
		}
		plan.DailyStudyPlan = append(plan.DailyStudyPlan, roadmap.DailyPlan{
			Date:  date,
			Tasks: day.Tasks,
		})
	}
	return &plan, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

func defaultOverview(t *tutor.Tutor) string {
	return fmt.Sprintf("Hi there, I'm %s, and I'll be guiding you through your journey in %s! "+
		"This roadmap breaks everything down into weekly goals, daily tasks, and key milestones "+
		"so you always know what's coming next. We'll move at your pace and keep things structured "+
		"and motivating. Let's turn your goals into wins, one step at a time.", t.Name, t.Subject)
}

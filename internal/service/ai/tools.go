package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/store"
)

// toolState classifies one turn's tool needs. It is derived solely from
// the just-decoded envelope; there is no cross-turn tool state.
type toolState int

const (
	noToolsNeeded toolState = iota
	tasksRequested
	roadmapRequested
	bothRequested
)

func stateFor(rt RequireTools) toolState {
	if !rt.IsAccessToToolsRequired {
		return noToolsNeeded
	}
	switch {
	case rt.GetUsersTasks && rt.GetUsersRoadmap:
		return bothRequested
	case rt.GetUsersTasks:
		return tasksRequested
	case rt.GetUsersRoadmap:
		return roadmapRequested
	default:
		return noToolsNeeded
	}
}

const conclusionLeadIn = "Alright, based on the above details, here's the conclusion:"

// Resolver fetches the auxiliary data a model turn asked for and runs
// the follow-up round-trip that folds it into the final answer.
type Resolver struct {
	repo    store.Repository
	prompts *PromptBuilder
	log     *zap.Logger
}

// NewResolver constructs a tool resolver.
func NewResolver(repo store.Repository, prompts *PromptBuilder, log *zap.Logger) *Resolver {
	return &Resolver{repo: repo, prompts: prompts, log: log.Named("tools")}
}

// resolveInput carries everything one resolution needs from the turn.
type resolveInput struct {
	UserMessage string
	Envelope    Envelope
	Caller      *user.User
	Tutor       *tutor.Tutor
	Role        user.Role
}

// Resolve fetches the requested data, sends the follow-up framing turn
// on the same conversation, and composes the final message. A failing
// tool is logged and skipped; it never aborts the other tool or the
// base message. Only a failing follow-up model call returns an error.
func (r *Resolver) Resolve(ctx context.Context, sess *Session, in resolveInput) (string, error) {
	st := stateFor(in.Envelope.RequireTools)
	if st == noToolsNeeded {
		return in.Envelope.Message, nil
	}

	// When a parent is asking, the data under discussion belongs to the
	// tutor's linked student, not to the caller.
	beneficiary := in.Caller.ID
	if in.Role == user.RoleParent {
		beneficiary = in.Tutor.StudentID
	}

	var sections []string

	if st == tasksRequested || st == bothRequested {
		section, err := r.taskSection(ctx, beneficiary, in.Tutor.ID)
		if err != nil {
			r.log.Error("task fetch failed, continuing without tasks",
				zap.String("studentId", beneficiary), zap.Error(err))
		} else {
			sections = append(sections, section)
		}
	}

	if st == roadmapRequested || st == bothRequested {
		section, err := r.roadmapSection(ctx, in.Tutor)
		if err != nil {
			r.log.Error("roadmap fetch failed, continuing without roadmap",
				zap.String("tutorId", in.Tutor.ID), zap.Error(err))
		} else {
			sections = append(sections, section)
		}
	}

	// Every tool failed: nothing to frame, return the base message.
	if len(sections) == 0 {
		return in.Envelope.Message, nil
	}

	dataBlock := strings.Join(sections, "\n\n")

	followUp, err := r.prompts.ToolFollowUp(in.Role, in.UserMessage, dataBlock, in.Tutor.Personality)
	if err != nil {
		return "", err
	}

	raw, err := sess.Send(ctx, followUp)
	if err != nil {
		return "", fmt.Errorf("tool follow-up turn: %w", err)
	}

	final := Decode(raw)

	var sb strings.Builder
	sb.WriteString(in.Envelope.Message)
	sb.WriteString("\n\n")
	sb.WriteString(dataBlock)
	sb.WriteString("\n\n")
	sb.WriteString(conclusionLeadIn)
	sb.WriteString("\n\n")
	sb.WriteString(final.Message)
	return sb.String(), nil
}

func (r *Resolver) taskSection(ctx context.Context, studentID, tutorID string) (string, error) {
	tasks, err := r.repo.ListTasks(ctx, store.TaskFilter{UserID: studentID, TutorID: tutorID})
	if err != nil {
		return "", err
	}

	if len(tasks) == 0 {
		return "**Tasks:**\n_No tasks found._", nil
	}

	var sb strings.Builder
	sb.WriteString("**Tasks:**\n")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- **%s** (%s)\n", t.Title, t.Status)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (r *Resolver) roadmapSection(ctx context.Context, t *tutor.Tutor) (string, error) {
	if t.RoadmapID == "" {
		return "Roadmap data:\nThe student has no roadmap yet; suggest uploading a syllabus to generate one.", nil
	}

	rm, err := r.repo.GetRoadmap(ctx, t.RoadmapID)
	if err != nil {
		return "", err
	}
	if rm == nil {
		return "", fmt.Errorf("roadmap %s not found", t.RoadmapID)
	}

	// Raw data block, no markdown: rendering is the follow-up turn's job.
	raw, err := json.Marshal(rm.Plan)
	if err != nil {
		return "", fmt.Errorf("marshal roadmap: %w", err)
	}
	return "Roadmap data:\n" + string(raw), nil
}

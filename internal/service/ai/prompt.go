package ai

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// istLocation is the fixed timezone used for temporal grounding in
// prompts, so "today" means the same thing to the model and the user.
var istLocation = loadIST()

func loadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// PromptBuilder renders system and follow-up prompts from versioned
// template files, keeping prompt content out of the orchestration code.
type PromptBuilder struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewPromptBuilder parses the embedded prompt templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	tmpl, err := template.ParseFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl, now: time.Now}, nil
}

type systemData struct {
	Tutor         *tutor.Tutor
	Interests     string
	StudentJSON   string
	Summary       string
	HasRoadmap    bool
	Parent        bool
	Tone          string
	StyleGuidance string
	Language      string
	Now           string
}

// System builds the system instruction for a new session. It is set
// once at session creation and not re-sent per turn.
func (b *PromptBuilder) System(t *tutor.Tutor, u *user.User, role user.Role) (string, error) {
	studentJSON, err := json.Marshal(newStudentView(u))
	if err != nil {
		return "", fmt.Errorf("marshal student details: %w", err)
	}

	interests := strings.Join(t.Interests, ", ")
	if interests == "" {
		interests = "various topics"
	}

	summary := t.StudentSummary
	if summary == "" {
		summary = "No summary available yet. The student has not yet interacted enough for a detailed performance summary."
	}

	language := t.Language
	if language == "" {
		language = "English"
	}

	data := systemData{
		Tutor:         t,
		Interests:     interests,
		StudentJSON:   string(studentJSON),
		Summary:       summary,
		HasRoadmap:    t.RoadmapID != "",
		Parent:        role == user.RoleParent,
		Tone:          ToneHint(t.Personality),
		StyleGuidance: styleGuidance(t.LearningStyle),
		Language:      language,
		Now:           b.now().In(istLocation).Format("Monday, 2 January 2006 at 3:04 PM"),
	}

	var sb strings.Builder
	if err := b.tmpl.ExecuteTemplate(&sb, "system", data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return sb.String(), nil
}

type followUpData struct {
	Audience        string
	OriginalMessage string
	DataBlock       string
	Tone            string
	Now             string
}

// ToolFollowUp builds the framing prompt for the second model turn
// that folds fetched tool data into the final answer.
func (b *PromptBuilder) ToolFollowUp(role user.Role, originalMessage, dataBlock string, personality tutor.Personality) (string, error) {
	audience := "user"
	if role == user.RoleParent {
		audience = "parent of the child"
	}

	data := followUpData{
		Audience:        audience,
		OriginalMessage: originalMessage,
		DataBlock:       dataBlock,
		Tone:            ToneHint(personality),
		Now:             b.now().In(istLocation).Format("Monday, 2 January 2006 at 3:04 PM"),
	}

	var sb strings.Builder
	if err := b.tmpl.ExecuteTemplate(&sb, "followup", data); err != nil {
		return "", fmt.Errorf("render follow-up prompt: %w", err)
	}
	return sb.String(), nil
}

// ToneHint returns the personality-specific tone guidance appended to
// both the system prompt and the tool follow-up framing.
func ToneHint(p tutor.Personality) string {
	switch p.Normalize() {
	case tutor.PersonalityFriendly:
		return "Use a warm, encouraging tone. Be supportive and patient. Use emoticons occasionally to create a friendly atmosphere."
	case tutor.PersonalityStrict:
		return "Be direct and focused on academic rigor. Push the student to excel and think critically. Focus on precision and accuracy."
	case tutor.PersonalityWitty:
		return "Use humor and clever analogies to make learning more engaging. Be quick-witted but ensure the educational content remains clear."
	default:
		return "Maintain a balanced, professional tone that prioritizes clarity and helpfulness."
	}
}

func styleGuidance(s tutor.LearningStyle) string {
	switch s {
	case tutor.StyleVisual:
		return `Since the student is a visual learner:
- Describe visual representations when explaining concepts
- Suggest diagrams, charts, and visual aids
- Use spatial relationships and visual metaphors
- Encourage the student to visualize concepts`
	case tutor.StyleAuditory:
		return `Since the student is an auditory learner:
- Use rhythmic patterns when appropriate
- Suggest verbal repetition as a memory technique
- Frame concepts in terms of sound and discussions
- Encourage the student to verbalize their understanding`
	default:
		return ""
	}
}

// studentView is the subset of account data shared with the model.
type studentView struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

func newStudentView(u *user.User) studentView {
	return studentView{
		Name:          u.Name,
		Role:          string(u.Role),
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
	}
}

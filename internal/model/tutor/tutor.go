package tutor

import "time"

// Personality shapes the tutor's tone across every model turn.
type Personality string

const (
	PersonalityFriendly Personality = "friendly"
	PersonalityStrict   Personality = "strict"
	PersonalityWitty    Personality = "witty"
	PersonalityDefault  Personality = "default"
)

// Normalize maps unknown values onto the default personality.
func (p Personality) Normalize() Personality {
	switch p {
	case PersonalityFriendly, PersonalityStrict, PersonalityWitty:
		return p
	default:
		return PersonalityDefault
	}
}

// LearningStyle selects the instructional guidance baked into the system prompt.
type LearningStyle string

const (
	StyleVisual   LearningStyle = "visual"
	StyleAuditory LearningStyle = "auditory"
)

// Pace is the teaching speed the tutor commits to.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceMedium Pace = "medium"
	PaceFast   Pace = "fast"
)

// Tutor is an AI tutor persona configured by a student.
// StudentID is the student the tutor teaches, which is not necessarily
// the account talking to it (parents chat with their child's tutors).
type Tutor struct {
	ID             string        `json:"id"`
	StudentID      string        `json:"studentId"`
	Avatar         string        `json:"avatar"`
	Name           string        `json:"name"`
	Subject        string        `json:"subject"`
	Personality    Personality   `json:"personality"`
	LearningStyle  LearningStyle `json:"learningStyle"`
	Interests      []string      `json:"interests"`
	Pace           Pace          `json:"pace"`
	Language       string        `json:"language"`
	StudentSummary string        `json:"studentSummary,omitempty"`
	RoadmapID      string        `json:"roadmapId,omitempty"`
	ChatID         string        `json:"chatId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

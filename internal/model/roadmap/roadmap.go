// Package roadmap defines the generated study-plan document.
// The shape mirrors the JSON schema handed to the model during
// generation, so a decoded response maps straight onto it.
package roadmap

import "time"

// Resource is a study material referenced by a topic.
type Resource struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// KeyTopic is one syllabus topic with its planning metadata.
type KeyTopic struct {
	Topic         string     `json:"topic"`
	Priority      string     `json:"priority"`   // High | Medium | Low
	Difficulty    string     `json:"difficulty"` // Easy | Medium | Hard
	Description   string     `json:"description"`
	EstimatedTime string     `json:"estimated_time"`
	Resources     []Resource `json:"resources,omitempty"`
}

// Activity is a concrete piece of work inside a weekly plan.
type Activity struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedTime string `json:"estimated_time"`
}

// WeeklyPlan groups goals and milestones for one week of study.
type WeeklyPlan struct {
	Week       int        `json:"week"`
	Dates      string     `json:"dates"`
	Goals      []string   `json:"goals"`
	Milestones []string   `json:"milestones"`
	Activities []Activity `json:"activities"`
}

// PlannedTask is a daily-plan entry before it becomes a Task record.
type PlannedTask struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedTime string `json:"estimated_time"`
	Status        string `json:"status,omitempty"`
	TaskID        string `json:"taskId,omitempty"`
}

// DailyPlan holds the tasks scheduled for a single date.
type DailyPlan struct {
	Date  time.Time     `json:"date"`
	Tasks []PlannedTask `json:"tasks"`
}

// Strategies flags which learning techniques the plan leans on.
type Strategies struct {
	SpacedRepetition bool `json:"spaced_repetition"`
	ActiveRecall     bool `json:"active_recall"`
	Pomodoro         bool `json:"pomodoro"`
	Notes            bool `json:"notes"`
	GroupStudy       bool `json:"group_study"`
}

// Progress tracks topic completion over the life of the plan.
type Progress struct {
	CompletedTopics []string `json:"completed_topics"`
	PendingTopics   []string `json:"pending_topics"`
}

// Plan is the structured body of a roadmap.
type Plan struct {
	Overview           string       `json:"overview"`
	KeyTopics          []KeyTopic   `json:"key_topics"`
	WeeklyStudyPlans   []WeeklyPlan `json:"weekly_study_plans"`
	DailyStudyPlan     []DailyPlan  `json:"daily_study_plan"`
	LearningStrategies Strategies   `json:"learning_strategies"`
	ProgressTracking   Progress     `json:"progress_tracking"`
}

// Roadmap is a persisted, tutor-linked study plan.
type Roadmap struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Deadline  time.Time `json:"deadline"`
	Plan      Plan      `json:"roadmap"`
	CreatedAt time.Time `json:"createdAt"`
}

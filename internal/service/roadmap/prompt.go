package roadmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/gurukul-ai/backend/internal/model/tutor"
)

// generationPrompt frames the syllabus and study preferences for the
// plan-generation call. Dates are grounded explicitly so the model
// schedules forward from today instead of hallucinating a range.
func generationPrompt(t *tutor.Tutor, deadline time.Time, syllabusText string) string {
	var sb strings.Builder

	today := time.Now().Format("2006-01-02")
	days := int(time.Until(deadline).Hours()/24) + 1

	fmt.Fprintf(&sb, "You are %s, an expert %s tutor. Create a complete, realistic study roadmap from the syllabus below.\n\n", t.Name, t.Subject)
	fmt.Fprintf(&sb, "Today's date: %s\n", today)
	fmt.Fprintf(&sb, "Deadline: %s (%d days from today)\n", deadline.Format("2006-01-02"), days)
	fmt.Fprintf(&sb, "Student's learning style: %s\n", t.LearningStyle)
	fmt.Fprintf(&sb, "Preferred pace: %s\n", t.Pace)
	if len(t.Interests) > 0 {
		fmt.Fprintf(&sb, "Student's interests: %s\n", strings.Join(t.Interests, ", "))
	}

	sb.WriteString(`
Requirements:
- Cover every topic in the syllabus, ordered by prerequisite and priority.
- The overview must be a warm, motivating introduction written in the tutor's voice.
- weekly_study_plans must span from today to the deadline with concrete goals and milestones per week.
- daily_study_plan must have one entry per study day, dates in YYYY-MM-DD format, starting today and ending on or before the deadline. Each day gets 1-3 tasks with realistic estimated times.
- Match the pace: a slow pace means fewer, smaller tasks per day; fast means denser days.
- progress_tracking starts with all topics pending and none completed.

Syllabus:
`)
	sb.WriteString(syllabusText)
	return sb.String()
}

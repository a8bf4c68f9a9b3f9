package task

import "time"

// Status tracks a task through its lifecycle.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// Task is a single study item scheduled for a concrete day.
// The date is stored as string parts so tasks can be grouped and
// filtered without timezone arithmetic.
type Task struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	TutorID       string    `json:"tutorId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	EstimatedTime string    `json:"estimated_time"`
	Status        Status    `json:"status"`
	Year          string    `json:"year"`
	Month         string    `json:"month"`
	Day           string    `json:"day"`
	Time          string    `json:"time"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DateParts is a calendar day split the way tasks index it.
type DateParts struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
}

// PartsOf splits t into zero-padded year/month/day strings.
func PartsOf(t time.Time) DateParts {
	return DateParts{
		Year:  t.Format("2006"),
		Month: t.Format("01"),
		Day:   t.Format("02"),
	}
}

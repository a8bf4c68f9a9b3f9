package chat

import "time"

// Chat is a persisted conversation between one account and one tutor.
// StudentID is set when a parent opens a chat about their child.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	StudentID string    `json:"studentId,omitempty"`
	TutorID   string    `json:"tutorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

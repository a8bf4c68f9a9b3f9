package chat

import "time"

// SenderType tells user-authored turns apart from tutor replies.
type SenderType string

const (
	SenderUser  SenderType = "user"
	SenderTutor SenderType = "tutor"
)

// Message persists individual turns for transcript and audit.
type Message struct {
	ID         string     `json:"id"`
	ChatID     string     `json:"chatId"`
	SenderID   string     `json:"senderId"`
	SenderType SenderType `json:"senderType"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
}

package user

import "time"

// Role distinguishes who is talking to a tutor.
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleParent
}

// Tier is the subscription level gating tutor creation.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// User is an account holder: either a student or a parent linked to one.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	SubscriptionTier Tier      `json:"subscriptionTier"`
	StudentID        string    `json:"studentId,omitempty"` // set for parents
	TutorsCreated    int       `json:"tutorsCreated"`
	CurrentStreak    int       `json:"currentStreak"`
	LongestStreak    int       `json:"longestStreak"`
	LastActivity     time.Time `json:"lastActivity"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

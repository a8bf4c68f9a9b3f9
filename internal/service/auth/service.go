// Package auth implements account registration, login, and token
// issuance for students and parents.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gurukul-ai/backend/internal/model/user"
	"github.com/gurukul-ai/backend/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrStudentNotFound    = errors.New("linked student not found")
)

const tokenTTL = 7 * 24 * time.Hour

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and validates credentials.
type Service struct {
	repo   store.Repository
	secret []byte
}

// NewService creates the auth service with the signing secret.
func NewService(repo store.Repository, secret string) *Service {
	return &Service{repo: repo, secret: []byte(secret)}
}

// RegisterInput is the payload for account creation. StudentEmail
// links a parent account to an existing student.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         user.Role
	StudentEmail string
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	var studentID string
	if in.Role == user.RoleParent && in.StudentEmail != "" {
		student, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.StudentEmail)))
		if err != nil {
			return nil, "", fmt.Errorf("resolve student: %w", err)
		}
		if student == nil || student.Role != user.RoleStudent {
			return nil, "", ErrStudentNotFound
		}
		studentID = student.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Email:            email,
		PasswordHash:     string(hash),
		Role:             in.Role,
		SubscriptionTier: user.TierFree,
		StudentID:        studentID,
		LastActivity:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login checks credentials and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Verify validates a token and returns the claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) issueToken(u *user.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

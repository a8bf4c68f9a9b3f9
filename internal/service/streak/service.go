// Package streak maintains daily study streaks: activity bumps the
// counter once per calendar day, and a scheduled sweep resets streaks
// that were not touched yesterday.
package streak

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/store"
)

// Service tracks and resets study streaks.
type Service struct {
	repo store.Repository
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger
	mu   sync.Mutex
}

// NewService wires the streak service.
func NewService(repo store.Repository, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  log.Named("streak"),
	}
}

// TouchActivity records study activity for a user. The first touch of
// a calendar day extends the streak; repeated touches the same day are
// no-ops. A gap of more than one day restarts the streak at 1.
func (s *Service) TouchActivity(ctx context.Context, userID string) error {
	// The read-modify-write below must not interleave with another
	// touch, or a same-day pair could count twice.
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	now := s.now().UTC()
	today := dayOf(now)
	last := dayOf(u.LastActivity.UTC())

	if u.CurrentStreak > 0 && today.Equal(last) {
		return nil
	}

	current := 1
	if today.Sub(last) == 24*time.Hour {
		current = u.CurrentStreak + 1
	}

	longest := u.LongestStreak
	if current > longest {
		longest = current
	}

	if err := s.repo.UpdateStreak(ctx, userID, current, longest, now); err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// StartScheduler registers the daily reset job with the given cron
// expression and starts the scheduler. Call Stop on shutdown.
func (s *Service) StartScheduler(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.resetStale); err != nil {
		return fmt.Errorf("schedule streak reset: %w", err)
	}
	s.cron.Start()
	s.log.Info("streak reset scheduled", zap.String("cron", spec))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// resetStale zeroes the current streak of anyone whose last activity
// is before the start of yesterday. Someone active yesterday still has
// today to keep the chain alive.
func (s *Service) resetStale() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := dayOf(s.now().UTC()).Add(-24 * time.Hour)
	n, err := s.repo.ResetStaleStreaks(ctx, cutoff)
	if err != nil {
		s.log.Error("streak reset sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("reset stale streaks", zap.Int64("count", n))
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

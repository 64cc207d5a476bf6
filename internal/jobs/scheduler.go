package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenPurger removes expired one-time tokens and session revocations.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler creates a scheduler running the token cleanup on cleanupSpec,
// a six-field cron expression with seconds.
func NewScheduler(cleanupSpec string, purger TokenPurger, logger *zap.Logger) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(cleanupSpec, PurgeTokens(purger, logger, time.Minute)); err != nil {
		return nil, fmt.Errorf("register token cleanup job: %w", err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}

// PurgeTokens returns the cleanup job. Each run is bounded by timeout.
func PurgeTokens(purger TokenPurger, logger *zap.Logger, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := purger.PurgeExpiredTokens(ctx)
		if err != nil {
			logger.Error("token cleanup failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("token cleanup", zap.Int64("deleted", n))
		}
	}
}

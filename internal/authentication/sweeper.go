package authentication

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

var ErrSweeperRunning = errors.New("sweeper already running")

// ExpirySweeper periodically removes expired refresh tokens. Refresh rejects
// expired tokens on its own, so the sweeper only bounds table growth.
type ExpirySweeper struct {
	repo     RefreshTokenRepository
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
}

func NewExpirySweeper(repo RefreshTokenRepository, interval time.Duration, logger *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		repo:     repo,
		interval: interval,
		logger:   logger.Named("sweeper"),
		now:      time.Now,
	}
}

// Start sweeps once and then schedules a sweep every interval until Stop is
// called or ctx is done.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return ErrSweeperRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.
		Every(s.interval).
		WaitForSchedule().
		SingletonMode().
		Do(s.Sweep, ctx)
	if err != nil {
		cancel()
		return err
	}

	s.Sweep(ctx)
	scheduler.StartAsync()

	s.scheduler = scheduler
	s.cancel = cancel
	s.logger.Info("expired token sweeper started", zap.Duration("interval", s.interval))
	return nil
}

func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler == nil {
		return
	}
	// cancel first: gocron waits for in-flight singleton runs to return.
	s.cancel()
	s.scheduler.Stop()
	s.scheduler = nil
	s.cancel = nil
	s.logger.Info("expired token sweeper stopped")
}

// Sweep runs one cleanup pass. Failures are logged; the schedule continues.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("failed to delete expired refresh tokens", zap.Error(err))
	}
}

func (s *ExpirySweeper) RunOnce(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("deleted expired refresh tokens", zap.Int64("count", deleted))
	}
	return deleted, nil
}

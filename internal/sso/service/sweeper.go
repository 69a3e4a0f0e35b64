package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tutorhub/sso/internal/sso/store"
)

const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically clears expired pending authorizations and sessions so
// abandoned flows do not accumulate in the state store.
type Sweeper struct {
	State    store.StateStore
	Logger   *slog.Logger
	Interval time.Duration
	Clock    Clock

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper with the given interval. An interval of 0 or
// below falls back to the default.
func NewSweeper(state store.StateStore, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		State:    state,
		Logger:   logger,
		Interval: interval,
		Clock:    SystemClock(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("sweeper started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep finishes.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once on startup
	s.Sweep()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

// Sweep removes everything past its expiry from both collections. Failures
// are logged and swallowed; the next tick tries again.
func (s *Sweeper) Sweep() {
	ctx := context.Background()
	now := s.Clock.Now()

	codes, err := s.State.PendingAuthorizations().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to sweep pending authorizations", "error", err)
	}

	sessions, err := s.State.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to sweep sessions", "error", err)
	}

	if codes > 0 || sessions > 0 {
		s.Logger.Info("sweep completed",
			slog.Int("expired_codes", codes),
			slog.Int("expired_sessions", sessions),
		)
	}
}

package scheduler

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/lithammer/shortuuid/v3"
)

type orderExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Scheduler periodically expires checkouts that were never paid.
type Scheduler struct {
	orders   orderExpirer
	interval time.Duration
}

func New(orders orderExpirer, interval time.Duration) *Scheduler {
	if orders == nil {
		panic("missing orders")
	}
	if interval <= 0 {
		panic("interval must be positive")
	}

	return &Scheduler{
		orders:   orders,
		interval: interval,
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.FromContext(ctx).WithField("interval", s.interval).Info("Scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.FromContext(ctx).Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	correlationID := "expiry_" + shortuuid.New()
	ctx = log.ContextWithCorrelationID(ctx, correlationID)
	logger := log.FromContext(ctx).WithField("correlation_id", correlationID)
	ctx = log.ToContext(ctx, logger)

	if _, err := s.orders.ExpireStale(ctx); err != nil {
		logger.WithError(err).Error("Could not expire stale orders")
	}
}

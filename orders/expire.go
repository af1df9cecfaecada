package orders

import (
	"context"

	"boxoffice/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

// ExpireStale fails pending orders that were not paid within the order TTL.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.orders.ExpirePending(ctx, s.now().Add(-s.config.OrderTTL))
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	metrics.ExpiredOrders.Add(float64(len(expired)))
	log.FromContext(ctx).WithField("payment_ids", expired).Info("Expired unpaid orders")

	return len(expired), nil
}

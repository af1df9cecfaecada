package event

import (
	"context"

	"boxoffice/entities"
	"boxoffice/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

func (h Handler) AlertReconciliation(ctx context.Context, event *entities.ReconciliationRequired_v1) error {
	log.FromContext(ctx).WithFields(logrus.Fields{
		"payment_id": event.PaymentID,
		"tier_id":    event.TierID,
		"requested":  event.Requested,
		"granted":    event.Granted,
		"reason":     event.Reason,
	}).Warn("Order needs manual reconciliation")

	metrics.ReconciliationsRequired.WithLabelValues(string(event.Reason)).Inc()

	return nil
}

package entities

import (
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	TierID    uuid.UUID       `json:"tier_id" db:"tier_id"`
	Requested int             `json:"requested" db:"requested"`
	Granted   int             `json:"granted" db:"granted"`
	Reason    RejectionReason `json:"reason,omitempty" db:"reason"`
}

func (r Reservation) Committed() bool {
	return r.Granted > 0 && r.Granted == r.Requested
}

func (r Reservation) Shortfall() int {
	return r.Requested - r.Granted
}

type ReconciliationReason string

const (
	ReconciliationInsufficientCapacity ReconciliationReason = "insufficient-capacity"
	ReconciliationTierNotAvailable     ReconciliationReason = "tier-not-available"
	ReconciliationPaidAfterExpiry      ReconciliationReason = "paid-after-expiry"
	ReconciliationCancelled            ReconciliationReason = "cancelled"
	ReconciliationArtifactFailed       ReconciliationReason = "artifact-generation-failed"
)

// Compensation reports whether the reason may be given for cancelling the tickets of an order.
func (r ReconciliationReason) Compensation() bool {
	return r == ReconciliationCancelled || r == ReconciliationArtifactFailed || r == ReconciliationPaidAfterExpiry
}

// Reconciliation is a paid amount of tickets we could not (or no longer) honor.
// It is left for an operator to refund by hand. Order level records use uuid.Nil as TierID.
type Reconciliation struct {
	PaymentID string               `json:"payment_id" db:"payment_id"`
	TierID    uuid.UUID            `json:"tier_id" db:"tier_id"`
	Requested int                  `json:"requested" db:"requested"`
	Granted   int                  `json:"granted" db:"granted"`
	Reason    ReconciliationReason `json:"reason" db:"reason"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

func ReconciliationFor(paymentID string, reservation Reservation) Reconciliation {
	reason := ReconciliationInsufficientCapacity
	if reservation.Reason == ReasonTierNotAvailable || reservation.Reason == ReasonTierNotFound {
		reason = ReconciliationTierNotAvailable
	}
	return Reconciliation{
		PaymentID: paymentID,
		TierID:    reservation.TierID,
		Requested: reservation.Requested,
		Granted:   reservation.Granted,
		Reason:    reason,
	}
}

package entities

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TierStatus string

const (
	TierAvailable   TierStatus = "available"
	TierSoldOut     TierStatus = "sold-out"
	TierComingSoon  TierStatus = "coming-soon"
	TierUnavailable TierStatus = "unavailable"
)

func (s TierStatus) Valid() bool {
	switch s {
	case TierAvailable, TierSoldOut, TierComingSoon, TierUnavailable:
		return true
	}
	return false
}

type RejectionReason string

const (
	ReasonTierNotFound         RejectionReason = "tier-not-found"
	ReasonTierNotAvailable     RejectionReason = "tier-not-available"
	ReasonInsufficientCapacity RejectionReason = "insufficient-capacity"
	ReasonInvalidQuantity      RejectionReason = "invalid-quantity"
	ReasonUnknownOrder         RejectionReason = "unknown-order"
	ReasonOrderFailed          RejectionReason = "order-failed"
	ReasonPaymentNotPaid       RejectionReason = "payment-not-paid"
)

type Tier struct {
	TierID   uuid.UUID       `json:"tier_id" db:"tier_id"`
	EventID  uuid.UUID       `json:"event_id" db:"event_id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Capacity int             `json:"capacity" db:"capacity"`
	Sold     int             `json:"sold" db:"sold"`
	Status   TierStatus      `json:"status" db:"status"`
}

// Code is the ticket code prefix of the tier, e.g. "Early Bird" -> "EARLY-BIRD".
func (t Tier) Code() string {
	return strings.ToUpper(strings.Join(strings.Fields(t.Name), "-"))
}

func (t Tier) Remaining() int {
	return t.Capacity - t.Sold
}

type Availability struct {
	OK     bool            `json:"ok"`
	Reason RejectionReason `json:"reason,omitempty"`
}

func (t Tier) CheckAvailability(qty int) Availability {
	if qty <= 0 {
		return Availability{Reason: ReasonInvalidQuantity}
	}
	if t.Status != TierAvailable {
		if t.Status == TierSoldOut {
			return Availability{Reason: ReasonInsufficientCapacity}
		}
		return Availability{Reason: ReasonTierNotAvailable}
	}
	if t.Sold+qty > t.Capacity {
		return Availability{Reason: ReasonInsufficientCapacity}
	}
	return Availability{OK: true}
}

// Grant commits up to qty units of capacity. Without partial, it is all or nothing.
// It returns the granted amount and, when less than qty was granted, the reason.
func (t *Tier) Grant(qty int, partial bool) (int, RejectionReason) {
	availability := t.CheckAvailability(qty)
	if availability.OK {
		t.commit(qty)
		return qty, ""
	}
	if !partial || availability.Reason != ReasonInsufficientCapacity || t.Status != TierAvailable {
		return 0, availability.Reason
	}

	granted := t.Remaining()
	if granted > 0 {
		t.commit(granted)
	}
	return granted, ReasonInsufficientCapacity
}

func (t *Tier) commit(qty int) {
	t.Sold += qty
	if t.Sold >= t.Capacity {
		t.Status = TierSoldOut
	}
}

// Release gives back qty units. A tier that was sold out becomes available again,
// statuses set by an admin are left alone.
func (t *Tier) Release(qty int) {
	if qty <= 0 {
		return
	}
	t.Sold -= qty
	if t.Sold < 0 {
		t.Sold = 0
	}
	if t.Status == TierSoldOut && t.Sold < t.Capacity {
		t.Status = TierAvailable
	}
}

type TierUpdate struct {
	Price    *decimal.Decimal `json:"price,omitempty"`
	Capacity *int             `json:"capacity,omitempty"`
	Status   *TierStatus      `json:"status,omitempty"`
}

// Apply validates and applies an admin edit. Sold is never touched.
func (t *Tier) Apply(update TierUpdate) error {
	if update.Price != nil {
		if update.Price.IsNegative() {
			return ValidationError{Field: "price", Msg: "must not be negative"}
		}
		t.Price = *update.Price
	}
	if update.Status != nil {
		status := *update.Status
		if !status.Valid() {
			return ValidationError{Field: "status", Msg: "unknown status " + string(status)}
		}
		if status == TierSoldOut {
			return ValidationError{Field: "status", Msg: "sold-out is set by sales only"}
		}
		t.Status = status
	}
	if update.Capacity != nil {
		if *update.Capacity < t.Sold {
			return ConflictError{Msg: "capacity can't drop below sold count"}
		}
		t.Capacity = *update.Capacity
	}

	if t.Status == TierAvailable && t.Sold >= t.Capacity {
		t.Status = TierSoldOut
	}
	if t.Status == TierSoldOut && t.Sold < t.Capacity {
		t.Status = TierAvailable
	}
	return nil
}

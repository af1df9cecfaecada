package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Ticket struct {
	Code      string     `json:"code" db:"code"`
	TierID    uuid.UUID  `json:"tier_id" db:"tier_id"`
	PaymentID string     `json:"payment_id" db:"payment_id"`
	Email     string     `json:"email" db:"email"`
	Slot      int        `json:"-" db:"slot"`
	IssuedAt  time.Time  `json:"issued_at" db:"issued_at"`
	Used      bool       `json:"used" db:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// TicketCode formats the n-th code of a tier, e.g. STANDARD-0001.
func TicketCode(tierCode string, n int64) string {
	return fmt.Sprintf("%s-%04d", tierCode, n)
}

// IssueRequest identifies one physical ticket of an order. Slot numbers the
// tickets of the same tier within the order so that a retried issue finds
// the ticket it already created.
type IssueRequest struct {
	TierID    uuid.UUID
	Email     string
	PaymentID string
	Slot      int
}

type RedemptionResult string

const (
	RedemptionValid       RedemptionResult = "valid"
	RedemptionAlreadyUsed RedemptionResult = "already-used"
	RedemptionNotFound    RedemptionResult = "not-found"
)

// TicketDetails is what a ticket artifact shows.
type TicketDetails struct {
	Ticket

	TierName  string    `json:"tier_name" db:"tier_name"`
	EventName string    `json:"event_name" db:"event_name"`
	Venue     string    `json:"venue" db:"venue"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
}

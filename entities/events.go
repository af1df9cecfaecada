package entities

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type TicketsIssued_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID   string   `json:"payment_id"`
	Email       string   `json:"email"`
	TicketCodes []string `json:"ticket_codes"`
}

type ReconciliationRequired_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID string               `json:"payment_id"`
	TierID    uuid.UUID            `json:"tier_id"`
	Requested int                  `json:"requested"`
	Granted   int                  `json:"granted"`
	Reason    ReconciliationReason `json:"reason"`
}

type TicketsDelivered_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID   string   `json:"payment_id"`
	Email       string   `json:"email"`
	TicketCodes []string `json:"ticket_codes"`
}

type OrderTicketsCancelled_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID   string               `json:"payment_id"`
	TicketCodes []string             `json:"ticket_codes"`
	Reason      ReconciliationReason `json:"reason"`
}

// AuditEntry is one event as stored in the audit log.
type AuditEntry struct {
	EventID     string    `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	EventName   string    `db:"event_name"`
	Payload     []byte    `db:"event_payload"`
}

package entities

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single show that tiers are sold for. It is not changed after creation.
type Event struct {
	EventID  uuid.UUID `json:"event_id" db:"event_id"`
	Name     string    `json:"name" db:"name"`
	Venue    string    `json:"venue" db:"venue"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`
}

type EventCreateResponse struct {
	EventID uuid.UUID `json:"event_id"`
}

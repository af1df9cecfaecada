package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderState string

const (
	OrderPending   OrderState = "pending"
	OrderFulfilled OrderState = "fulfilled"
	OrderFailed    OrderState = "failed"
)

// OrderExpired is the failure reason of orders that were never paid in time.
const OrderExpired = "expired"

func (s OrderState) Terminal() bool {
	return s == OrderFulfilled || s == OrderFailed
}

type LineItem struct {
	TierID    uuid.UUID       `json:"tier_id" db:"tier_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Order is keyed by the payment id the gateway gave us.
type Order struct {
	PaymentID     string          `json:"payment_id" db:"payment_id"`
	Email         string          `json:"email" db:"email"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Currency      string          `json:"currency" db:"currency"`
	CheckoutURL   string          `json:"checkout_url" db:"checkout_url"`
	State         OrderState      `json:"state" db:"state"`
	FailureReason string          `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Items []LineItem `json:"items" db:"-"`
}

func (o Order) Expired(now time.Time, ttl time.Duration) bool {
	return o.State == OrderPending && now.Sub(o.CreatedAt) > ttl
}

type Checkout struct {
	PaymentID   string          `json:"payment_id"`
	CheckoutURL string          `json:"checkout_url"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
}

type FulfillmentOutcome string

const (
	Fulfilled          FulfillmentOutcome = "fulfilled"
	PartiallyFulfilled FulfillmentOutcome = "partially-fulfilled"
	AlreadyFulfilled   FulfillmentOutcome = "already-fulfilled"
	Rejected           FulfillmentOutcome = "rejected"
)

type FulfillmentResult struct {
	Outcome    FulfillmentOutcome `json:"outcome"`
	Reason     RejectionReason    `json:"reason,omitempty"`
	Tickets    []Ticket           `json:"tickets,omitempty"`
	Shortfalls []Reconciliation   `json:"shortfalls,omitempty"`
}

// Fulfillment is the terminal transition of an order together with what was issued for it.
type Fulfillment struct {
	Order           Order
	Tickets         []Ticket
	Reconciliations []Reconciliation
}

func (f Fulfillment) State() OrderState {
	if len(f.Reconciliations) > 0 {
		return OrderFailed
	}
	return OrderFulfilled
}

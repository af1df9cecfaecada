package orders

import (
	"context"
	"time"

	"boxoffice/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type Ledger interface {
	CheckAvailability(ctx context.Context, tierID uuid.UUID, qty int) (entities.Availability, error)
	TierByID(ctx context.Context, tierID uuid.UUID) (entities.Tier, error)
	ReserveForOrder(ctx context.Context, paymentID string, tierID uuid.UUID, qty int) (entities.Reservation, error)
}

type OrderRepository interface {
	Add(ctx context.Context, order entities.Order) error
	ByPaymentID(ctx context.Context, paymentID string) (entities.Order, error)
	Complete(ctx context.Context, fulfillment entities.Fulfillment) (bool, error)
	MarkFailed(ctx context.Context, paymentID string, reason string) (bool, error)
	ExpirePending(ctx context.Context, createdBefore time.Time) ([]string, error)
}

type TicketStore interface {
	Issue(ctx context.Context, req entities.IssueRequest) (entities.Ticket, error)
	CancelUnused(ctx context.Context, paymentID string, reason entities.ReconciliationReason) ([]entities.Ticket, error)
}

type Reconciliations interface {
	Add(ctx context.Context, recs ...entities.Reconciliation) error
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, req entities.PaymentRequest) (entities.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (entities.Payment, error)
}

type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Config struct {
	TaxRate     decimal.Decimal
	Currency    string
	RedirectURL string
	WebhookURL  string
	OrderTTL    time.Duration
}

// Service creates orders and turns confirmed payments into tickets.
type Service struct {
	config Config

	ledger          Ledger
	orders          OrderRepository
	tickets         TicketStore
	reconciliations Reconciliations
	gateway         PaymentGateway
	locker          Locker

	flight singleflight.Group
	now    func() time.Time
}

func NewService(
	config Config,
	ledger Ledger,
	orders OrderRepository,
	tickets TicketStore,
	reconciliations Reconciliations,
	gateway PaymentGateway,
	locker Locker,
) *Service {
	if ledger == nil {
		panic("missing ledger")
	}
	if orders == nil {
		panic("missing orders")
	}
	if tickets == nil {
		panic("missing tickets")
	}
	if reconciliations == nil {
		panic("missing reconciliations")
	}
	if gateway == nil {
		panic("missing gateway")
	}
	if locker == nil {
		panic("missing locker")
	}
	if config.OrderTTL <= 0 {
		panic("order ttl must be positive")
	}

	return &Service{
		config:          config,
		ledger:          ledger,
		orders:          orders,
		tickets:         tickets,
		reconciliations: reconciliations,
		gateway:         gateway,
		locker:          locker,
		now:             time.Now,
	}
}

package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boxoffice/entities"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type memLedger struct {
	lock         sync.Mutex
	tiers        map[uuid.UUID]*entities.Tier
	reservations map[string]entities.Reservation
}

func newMemLedger(tiers ...entities.Tier) *memLedger {
	l := &memLedger{
		tiers:        map[uuid.UUID]*entities.Tier{},
		reservations: map[string]entities.Reservation{},
	}
	for i := range tiers {
		tier := tiers[i]
		l.tiers[tier.TierID] = &tier
	}
	return l
}

func (l *memLedger) CheckAvailability(ctx context.Context, tierID uuid.UUID, qty int) (entities.Availability, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	tier, ok := l.tiers[tierID]
	if !ok {
		return entities.Availability{Reason: entities.ReasonTierNotFound}, nil
	}
	return tier.CheckAvailability(qty), nil
}

func (l *memLedger) TierByID(ctx context.Context, tierID uuid.UUID) (entities.Tier, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	tier, ok := l.tiers[tierID]
	if !ok {
		return entities.Tier{}, entities.NotFoundError{Kind: "tier", ID: tierID.String()}
	}
	return *tier, nil
}

func (l *memLedger) ReserveForOrder(ctx context.Context, paymentID string, tierID uuid.UUID, qty int) (entities.Reservation, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	key := paymentID + "/" + tierID.String()
	if r, ok := l.reservations[key]; ok {
		return r, nil
	}

	reservation := entities.Reservation{TierID: tierID, Requested: qty}
	tier, ok := l.tiers[tierID]
	if !ok {
		reservation.Reason = entities.ReasonTierNotFound
		return reservation, nil
	}
	reservation.Granted, reservation.Reason = tier.Grant(qty, true)
	l.reservations[key] = reservation

	return reservation, nil
}

func (l *memLedger) sold(tierID uuid.UUID) int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.tiers[tierID].Sold
}

func (l *memLedger) release(tierID uuid.UUID, qty int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.tiers[tierID].Release(qty)
}

func (l *memLedger) setSold(tierID uuid.UUID, sold int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.tiers[tierID].Sold = sold
	if sold >= l.tiers[tierID].Capacity {
		l.tiers[tierID].Status = entities.TierSoldOut
	}
}

type memOrders struct {
	lock      sync.Mutex
	orders    map[string]entities.Order
	completed []entities.Fulfillment
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]entities.Order{}}
}

func (o *memOrders) Add(ctx context.Context, order entities.Order) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	if _, ok := o.orders[order.PaymentID]; ok {
		return entities.ConflictError{Msg: "order exists"}
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	o.orders[order.PaymentID] = order
	return nil
}

func (o *memOrders) ByPaymentID(ctx context.Context, paymentID string) (entities.Order, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	order, ok := o.orders[paymentID]
	if !ok {
		return entities.Order{}, entities.NotFoundError{Kind: "order", ID: paymentID}
	}
	return order, nil
}

func (o *memOrders) Complete(ctx context.Context, fulfillment entities.Fulfillment) (bool, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	order := o.orders[fulfillment.Order.PaymentID]
	if order.State != entities.OrderPending {
		return false, nil
	}
	order.State = fulfillment.State()
	if order.State == entities.OrderFailed {
		order.FailureReason = string(fulfillment.Reconciliations[0].Reason)
	}
	o.orders[order.PaymentID] = order
	o.completed = append(o.completed, fulfillment)

	return true, nil
}

func (o *memOrders) MarkFailed(ctx context.Context, paymentID string, reason string) (bool, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	order, ok := o.orders[paymentID]
	if !ok || order.State != entities.OrderPending {
		return false, nil
	}
	order.State = entities.OrderFailed
	order.FailureReason = reason
	o.orders[paymentID] = order

	return true, nil
}

func (o *memOrders) ExpirePending(ctx context.Context, createdBefore time.Time) ([]string, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	var expired []string
	for id, order := range o.orders {
		if order.State == entities.OrderPending && order.CreatedAt.Before(createdBefore) {
			order.State = entities.OrderFailed
			order.FailureReason = entities.OrderExpired
			o.orders[id] = order
			expired = append(expired, id)
		}
	}
	return expired, nil
}

func (o *memOrders) state(paymentID string) entities.OrderState {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.orders[paymentID].State
}

func (o *memOrders) backdate(paymentID string, age time.Duration) {
	o.lock.Lock()
	defer o.lock.Unlock()

	order := o.orders[paymentID]
	order.CreatedAt = time.Now().Add(-age)
	o.orders[paymentID] = order
}

type memTickets struct {
	lock    sync.Mutex
	tickets map[string]entities.Ticket
	counter map[string]int64
	names   map[uuid.UUID]string

	ledger *memLedger
	recs   *memReconciliations
}

func newMemTickets(ledger *memLedger, recs *memReconciliations, tiers ...entities.Tier) *memTickets {
	t := &memTickets{
		tickets: map[string]entities.Ticket{},
		counter: map[string]int64{},
		names:   map[uuid.UUID]string{},
		ledger:  ledger,
		recs:    recs,
	}
	for _, tier := range tiers {
		t.names[tier.TierID] = tier.Code()
	}
	return t
}

func (m *memTickets) Issue(ctx context.Context, req entities.IssueRequest) (entities.Ticket, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := fmt.Sprintf("%s/%s/%d", req.PaymentID, req.TierID, req.Slot)
	if t, ok := m.tickets[key]; ok {
		return t, nil
	}

	prefix := m.names[req.TierID]
	m.counter[prefix]++
	ticket := entities.Ticket{
		Code:      entities.TicketCode(prefix, m.counter[prefix]),
		TierID:    req.TierID,
		PaymentID: req.PaymentID,
		Email:     req.Email,
		Slot:      req.Slot,
		IssuedAt:  time.Now(),
	}
	m.tickets[key] = ticket

	return ticket, nil
}

func (m *memTickets) CancelUnused(ctx context.Context, paymentID string, reason entities.ReconciliationReason) ([]entities.Ticket, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	var revoked []entities.Ticket
	for key, t := range m.tickets {
		if t.PaymentID != paymentID || t.Used {
			continue
		}
		now := time.Now()
		t.Used = true
		t.RevokedAt = &now
		m.tickets[key] = t
		revoked = append(revoked, t)
	}

	for tierID, tickets := range lo.GroupBy(revoked, func(t entities.Ticket) uuid.UUID { return t.TierID }) {
		m.ledger.release(tierID, len(tickets))
		if err := m.recs.Add(ctx, entities.Reconciliation{
			PaymentID: paymentID,
			TierID:    tierID,
			Requested: len(tickets),
			Reason:    reason,
		}); err != nil {
			return nil, err
		}
	}

	return revoked, nil
}

func (m *memTickets) count() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.tickets)
}

func (m *memTickets) redeemable() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(lo.Filter(lo.Values(m.tickets), func(t entities.Ticket, _ int) bool { return !t.Used }))
}

type memReconciliations struct {
	lock sync.Mutex
	recs []entities.Reconciliation
}

func (r *memReconciliations) Add(ctx context.Context, recs ...entities.Reconciliation) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, rec := range recs {
		exists := lo.ContainsBy(r.recs, func(existing entities.Reconciliation) bool {
			return existing.PaymentID == rec.PaymentID && existing.TierID == rec.TierID && existing.Reason == rec.Reason
		})
		if !exists {
			r.recs = append(r.recs, rec)
		}
	}
	return nil
}

func (r *memReconciliations) all() []entities.Reconciliation {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]entities.Reconciliation(nil), r.recs...)
}

type localLocker struct {
	lock sync.Mutex
	held map[string]bool
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, ErrLocked
	}
	l.held[key] = true

	return func() {
		l.lock.Lock()
		defer l.lock.Unlock()
		delete(l.held, key)
	}, nil
}

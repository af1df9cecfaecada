package api

import (
	"context"
	"sync"

	"boxoffice/entities"

	"github.com/lithammer/shortuuid/v3"
)

type PaymentsMock struct {
	mock sync.Mutex

	Created  []entities.PaymentRequest
	Statuses map[string]entities.PaymentStatus
	Queries  map[string]int

	// Err fails every call when set.
	Err error
}

func NewPaymentsMock() *PaymentsMock {
	return &PaymentsMock{
		Statuses: map[string]entities.PaymentStatus{},
		Queries:  map[string]int{},
	}
}

func (m *PaymentsMock) CreatePayment(ctx context.Context, req entities.PaymentRequest) (entities.Payment, error) {
	m.mock.Lock()
	defer m.mock.Unlock()

	if m.Err != nil {
		return entities.Payment{}, m.Err
	}

	id := "tr_" + shortuuid.New()
	m.Created = append(m.Created, req)
	m.Statuses[id] = entities.PaymentOpen

	return entities.Payment{
		ID:          id,
		Status:      entities.PaymentOpen,
		CheckoutURL: "https://gateway.test/checkout/" + id,
	}, nil
}

func (m *PaymentsMock) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	m.mock.Lock()
	defer m.mock.Unlock()

	m.Queries[paymentID]++

	if m.Err != nil {
		return entities.Payment{}, m.Err
	}

	status, ok := m.Statuses[paymentID]
	if !ok {
		return entities.Payment{}, entities.NotFoundError{Kind: "payment", ID: paymentID}
	}

	return entities.Payment{ID: paymentID, Status: status}, nil
}

func (m *PaymentsMock) SetStatus(paymentID string, status entities.PaymentStatus) {
	m.mock.Lock()
	defer m.mock.Unlock()

	m.Statuses[paymentID] = status
}

func (m *PaymentsMock) CreatedCount() int {
	m.mock.Lock()
	defer m.mock.Unlock()

	return len(m.Created)
}

package command_test

import (
	"context"
	"errors"
	"testing"

	"boxoffice/entities"
	"boxoffice/message/command"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketsRepoMock struct {
	cancelled map[string]entities.ReconciliationReason
}

func (m *ticketsRepoMock) CancelUnused(ctx context.Context, paymentID string, reason entities.ReconciliationReason) ([]entities.Ticket, error) {
	if _, ok := m.cancelled[paymentID]; ok {
		return nil, nil
	}
	m.cancelled[paymentID] = reason
	return []entities.Ticket{{Code: "STANDARD-0001", PaymentID: paymentID}}, nil
}

func TestCancelOrderTickets(t *testing.T) {
	repo := &ticketsRepoMock{cancelled: map[string]entities.ReconciliationReason{}}
	handler := command.NewHandler(repo)

	cmd := &entities.CancelOrderTickets_v1{
		Header:    entities.NewEventHeader(),
		PaymentID: "tr_1",
		Reason:    entities.ReconciliationCancelled,
	}

	require.NoError(t, handler.CancelOrderTickets(context.Background(), cmd))
	// redelivery is harmless
	require.NoError(t, handler.CancelOrderTickets(context.Background(), cmd))

	assert.Equal(t, map[string]entities.ReconciliationReason{"tr_1": entities.ReconciliationCancelled}, repo.cancelled)
}

func TestCancelOrderTickets_unknown_reason(t *testing.T) {
	repo := &ticketsRepoMock{cancelled: map[string]entities.ReconciliationReason{}}
	handler := command.NewHandler(repo)

	err := handler.CancelOrderTickets(context.Background(), &entities.CancelOrderTickets_v1{
		Header:    entities.NewEventHeader(),
		PaymentID: "tr_1",
		Reason:    "changed-my-mind",
	})

	var permanent entities.PermanentError
	assert.True(t, errors.As(err, &permanent))
	assert.Empty(t, repo.cancelled)
}

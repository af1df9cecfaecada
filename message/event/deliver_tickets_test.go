package event_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"boxoffice/api"
	"boxoffice/entities"
	"boxoffice/message/command"
	"boxoffice/message/event"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketsRepoMock struct {
	details []entities.TicketDetails
}

func (m ticketsRepoMock) Details(ctx context.Context, codes []string) ([]entities.TicketDetails, error) {
	return m.details, nil
}

type rendererMock struct {
	fail map[string]error
}

func (m rendererMock) RenderTicket(ctx context.Context, ticket entities.TicketDetails) (entities.Artifact, error) {
	if err, ok := m.fail[ticket.Code]; ok {
		return entities.Artifact{}, err
	}
	return entities.Artifact{
		FileName:    ticket.Code + ".html",
		ContentType: "text/html",
		Content:     []byte(ticket.Code),
	}, nil
}

func details(codes ...string) []entities.TicketDetails {
	var out []entities.TicketDetails
	for _, code := range codes {
		out = append(out, entities.TicketDetails{
			Ticket:    entities.Ticket{Code: code, TierID: uuid.New(), PaymentID: "tr_1", Email: "fan@example.com"},
			TierName:  "Standard",
			EventName: "Concert",
			Venue:     "Arena",
			StartsAt:  time.Now().Add(24 * time.Hour),
		})
	}
	return out
}

func newHandler(t *testing.T, repo ticketsRepoMock, renderer rendererMock, mailer *api.MailMock) (event.Handler, *gochannel.GoChannel) {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubSub.Close()
	})

	return event.NewHandler(repo, renderer, mailer, event.NewBus(pubSub), command.NewBus(pubSub)), pubSub
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestDeliverTickets(t *testing.T) {
	mailer := &api.MailMock{}
	handler, pubSub := newHandler(t, ticketsRepoMock{details: details("STANDARD-0001", "STANDARD-0002")}, rendererMock{}, mailer)

	delivered, err := pubSub.Subscribe(context.Background(), event.Topic)
	require.NoError(t, err)

	err = handler.DeliverTickets(context.Background(), &entities.TicketsIssued_v1{
		Header:      entities.NewEventHeaderWithIdempotencyKey("tickets-issued-tr_1"),
		PaymentID:   "tr_1",
		Email:       "fan@example.com",
		TicketCodes: []string{"STANDARD-0001", "STANDARD-0002"},
	})
	require.NoError(t, err)

	sent := mailer.SentMails()
	require.Len(t, sent, 1)
	assert.Equal(t, "fan@example.com", sent[0].To)
	assert.Len(t, sent[0].Attachments, 2)

	msg := receive(t, delivered)
	assert.Equal(t, "TicketsDelivered_v1", event.Marshaler.NameFromMessage(msg))
}

func TestDeliverTickets_skips_revoked(t *testing.T) {
	tickets := details("STANDARD-0001", "STANDARD-0002")
	revokedAt := time.Now()
	tickets[1].RevokedAt = &revokedAt

	mailer := &api.MailMock{}
	handler, _ := newHandler(t, ticketsRepoMock{details: tickets}, rendererMock{}, mailer)

	err := handler.DeliverTickets(context.Background(), &entities.TicketsIssued_v1{
		Header:      entities.NewEventHeader(),
		PaymentID:   "tr_1",
		Email:       "fan@example.com",
		TicketCodes: []string{"STANDARD-0001", "STANDARD-0002"},
	})
	require.NoError(t, err)

	sent := mailer.SentMails()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "STANDARD-0001.html", sent[0].Attachments[0].FileName)
}

func TestDeliverTickets_mail_failure_is_retried(t *testing.T) {
	mailer := &api.MailMock{Err: assert.AnError}
	handler, _ := newHandler(t, ticketsRepoMock{details: details("STANDARD-0001")}, rendererMock{}, mailer)

	err := handler.DeliverTickets(context.Background(), &entities.TicketsIssued_v1{
		Header:      entities.NewEventHeader(),
		PaymentID:   "tr_1",
		Email:       "fan@example.com",
		TicketCodes: []string{"STANDARD-0001"},
	})
	require.Error(t, err)

	var permanent entities.PermanentError
	assert.False(t, errors.As(err, &permanent))
}

func TestDeliverTickets_render_failure_cancels_order(t *testing.T) {
	mailer := &api.MailMock{}
	renderer := rendererMock{fail: map[string]error{
		"STANDARD-0002": entities.PermanentError{Err: assert.AnError},
	}}
	handler, pubSub := newHandler(t, ticketsRepoMock{details: details("STANDARD-0001", "STANDARD-0002")}, renderer, mailer)

	commands, err := pubSub.Subscribe(context.Background(), "commands.CancelOrderTickets_v1")
	require.NoError(t, err)

	err = handler.DeliverTickets(context.Background(), &entities.TicketsIssued_v1{
		Header:      entities.NewEventHeader(),
		PaymentID:   "tr_1",
		Email:       "fan@example.com",
		TicketCodes: []string{"STANDARD-0001", "STANDARD-0002"},
	})
	require.NoError(t, err)
	assert.Empty(t, mailer.SentMails())

	msg := receive(t, commands)
	var cmd entities.CancelOrderTickets_v1
	require.NoError(t, event.Marshaler.Unmarshal(msg, &cmd))
	assert.Equal(t, "tr_1", cmd.PaymentID)
	assert.Equal(t, entities.ReconciliationArtifactFailed, cmd.Reason)
}

package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"boxoffice/api"
	"boxoffice/config"
	"boxoffice/db"
	"boxoffice/entities"
	"boxoffice/message"
	"boxoffice/service"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:8080"

func TestComponent(t *testing.T) {
	postgresURL := os.Getenv("POSTGRES_URL")
	redisAddr := os.Getenv("REDIS_ADDR")
	if postgresURL == "" || redisAddr == "" {
		t.Skip("POSTGRES_URL and REDIS_ADDR are required")
	}

	conn, err := db.NewDBConn(postgresURL)
	require.NoError(t, err)
	defer conn.Close()
	conn.MigrateSchema()

	rdb := message.NewRedisClient(redisAddr)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payments := api.NewPaymentsMock()
	mailer := &api.MailMock{}

	svc, err := service.New(
		config.Config{
			HTTPAddr:       ":8080",
			PublicBaseURL:  baseURL,
			Currency:       "EUR",
			TaxRate:        decimal.RequireFromString("0.09"),
			OrderTTL:       30 * time.Minute,
			ExpiryInterval: time.Minute,
			LockTTL:        30 * time.Second,
			AdminUser:      "admin",
			AdminPassword:  "secret",
			LogLevel:       logrus.InfoLevel,
		},
		conn,
		rdb,
		service.Clients{
			Payments: payments,
			Mailer:   mailer,
		},
	)
	require.NoError(t, err)

	go func() {
		assert.NoError(t, svc.Run(ctx))
	}()
	waitForHttpServer(t)

	var event entities.EventCreateResponse
	sendJSON(t, http.MethodPost, "/admin/events", map[string]any{
		"name":      "Concert " + shortuuid.New(),
		"venue":     "Arena",
		"starts_at": time.Now().Add(48 * time.Hour),
	}, http.StatusCreated, &event)

	var tier entities.Tier
	sendJSON(t, http.MethodPost, "/admin/events/"+event.EventID.String()+"/tiers", map[string]any{
		"name":     "Standard",
		"price":    "7.50",
		"capacity": 600,
	}, http.StatusCreated, &tier)

	var checkout entities.Checkout
	sendJSON(t, http.MethodPost, "/orders", map[string]any{
		"email": "fan@example.com",
		"items": []map[string]any{{"tier_id": tier.TierID, "quantity": 2}},
	}, http.StatusCreated, &checkout)
	assert.Equal(t, "16.35", checkout.Total.StringFixed(2))

	var result entities.FulfillmentResult
	sendJSON(t, http.MethodPost, "/webhooks/payments", map[string]any{"id": checkout.PaymentID}, http.StatusOK, &result)
	assert.Equal(t, entities.Rejected, result.Outcome)
	assert.Equal(t, entities.ReasonPaymentNotPaid, result.Reason)

	payments.SetStatus(checkout.PaymentID, entities.PaymentPaid)

	sendJSON(t, http.MethodPost, "/webhooks/payments", map[string]any{"id": checkout.PaymentID}, http.StatusOK, &result)
	assert.Equal(t, entities.Fulfilled, result.Outcome)
	require.Len(t, result.Tickets, 2)

	sendJSON(t, http.MethodPost, "/webhooks/payments", map[string]any{"id": checkout.PaymentID}, http.StatusOK, &result)
	assert.Equal(t, entities.AlreadyFulfilled, result.Outcome)

	assertTicketsMailed(t, mailer, "fan@example.com", 2)

	var order struct {
		State   entities.OrderState `json:"state"`
		Tickets []entities.Ticket   `json:"tickets"`
	}
	sendJSON(t, http.MethodGet, "/orders/"+checkout.PaymentID, nil, http.StatusOK, &order)
	assert.Equal(t, entities.OrderFulfilled, order.State)
	require.Len(t, order.Tickets, 2)

	code := order.Tickets[0].Code
	sendJSON(t, http.MethodGet, "/validate/"+code, nil, http.StatusOK, nil)
	sendJSON(t, http.MethodGet, "/validate/"+code, nil, http.StatusGone, nil)
	sendJSON(t, http.MethodGet, "/validate/UNKNOWN-"+uuid.NewString(), nil, http.StatusNotFound, nil)
}

func sendJSON(t *testing.T, method string, path string, body any, expectedStatus int, out any) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewBuffer(payload))
	require.NoError(t, err)

	req.Header.Set("Correlation-ID", shortuuid.New())
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, expectedStatus, resp.StatusCode, "%s %s", method, path)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func assertTicketsMailed(t *testing.T, mailer *api.MailMock, email string, tickets int) {
	t.Helper()

	assert.EventuallyWithT(
		t,
		func(collectT *assert.CollectT) {
			sent := mailer.SentMails()
			if !assert.Len(collectT, sent, 1) {
				return
			}
			assert.Equal(collectT, email, sent[0].To)
			assert.Len(collectT, sent[0].Attachments, tickets)
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode)
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

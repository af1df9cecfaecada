package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"boxoffice/api"
	"boxoffice/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentsClient_CreatePayment(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/payments", r.URL.Path)
		assert.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": "tr_WDqYK6vllg",
			"status": "open",
			"_links": {"checkout": {"href": "https://pay.example.com/checkout/tr_WDqYK6vllg"}}
		}`))
	}))
	defer server.Close()

	client := api.NewPaymentsClient(server.URL, "test_key")

	payment, err := client.CreatePayment(context.Background(), entities.PaymentRequest{
		Amount:      decimal.RequireFromString("16.35"),
		Currency:    "EUR",
		Description: "2 tickets",
		RedirectURL: "https://tickets.example.com/orders",
		WebhookURL:  "https://tickets.example.com/webhooks/payments",
	})
	require.NoError(t, err)

	assert.Equal(t, "tr_WDqYK6vllg", payment.ID)
	assert.Equal(t, entities.PaymentOpen, payment.Status)
	assert.Equal(t, "https://pay.example.com/checkout/tr_WDqYK6vllg", payment.CheckoutURL)
	assert.Equal(t, map[string]any{"currency": "EUR", "value": "16.35"}, received["amount"])
	assert.Equal(t, "https://tickets.example.com/webhooks/payments", received["webhookUrl"])
}

func TestPaymentsClient_GetPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/payments/tr_paid":
			_, _ = w.Write([]byte(`{"id": "tr_paid", "status": "paid"}`))
		case "/v2/payments/tr_broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := api.NewPaymentsClient(server.URL, "test_key")
	ctx := context.Background()

	payment, err := client.GetPayment(ctx, "tr_paid")
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentPaid, payment.Status)

	_, err = client.GetPayment(ctx, "tr_unknown")
	assert.ErrorAs(t, err, &entities.NotFoundError{})

	_, err = client.GetPayment(ctx, "tr_broken")
	assert.ErrorAs(t, err, &entities.UpstreamError{})
}

func TestPaymentsClient_circuit_breaker_opens(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := api.NewPaymentsClient(server.URL, "test_key")

	for i := 0; i < 10; i++ {
		_, err := client.GetPayment(context.Background(), "tr_any")
		assert.ErrorAs(t, err, &entities.UpstreamError{})
	}

	assert.Equal(t, int32(5), calls.Load())
}

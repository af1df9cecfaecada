package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"boxoffice/entities"
	"boxoffice/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const gatewayService = "payment-gateway"

// PaymentsClient talks to the payment gateway REST API.
// Gateway outages open the circuit breaker so that checkouts fail fast.
type PaymentsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewPaymentsClient(baseURL string, apiKey string) *PaymentsClient {
	if baseURL == "" {
		panic("NewPaymentsClient: baseURL is empty")
	}

	return &PaymentsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    gatewayService,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type gatewayAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type createPaymentRequest struct {
	Amount      gatewayAmount     `json:"amount"`
	Description string            `json:"description"`
	RedirectURL string            `json:"redirectUrl"`
	WebhookURL  string            `json:"webhookUrl"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type paymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

func (r paymentResponse) toEntity() entities.Payment {
	return entities.Payment{
		ID:          r.ID,
		Status:      entities.PaymentStatus(r.Status),
		CheckoutURL: r.Links.Checkout.Href,
	}
}

func (c *PaymentsClient) CreatePayment(ctx context.Context, req entities.PaymentRequest) (entities.Payment, error) {
	body := createPaymentRequest{
		Amount: gatewayAmount{
			Currency: req.Currency,
			Value:    req.Amount.StringFixed(2),
		},
		Description: req.Description,
		RedirectURL: req.RedirectURL,
		WebhookURL:  req.WebhookURL,
		Metadata:    req.Metadata,
	}

	var resp paymentResponse
	status, err := c.do(ctx, "create_payment", http.MethodPost, "/v2/payments", body, &resp)
	if err != nil {
		return entities.Payment{}, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return entities.Payment{}, entities.UpstreamError{
			Service: gatewayService,
			Err:     fmt.Errorf("unexpected status code %d for create payment", status),
		}
	}
	if resp.ID == "" || resp.Links.Checkout.Href == "" {
		return entities.Payment{}, entities.UpstreamError{
			Service: gatewayService,
			Err:     errors.New("payment without id or checkout url"),
		}
	}

	return resp.toEntity(), nil
}

func (c *PaymentsClient) GetPayment(ctx context.Context, paymentID string) (entities.Payment, error) {
	var resp paymentResponse
	status, err := c.do(ctx, "get_payment", http.MethodGet, "/v2/payments/"+url.PathEscape(paymentID), nil, &resp)
	if err != nil {
		return entities.Payment{}, err
	}
	if status == http.StatusNotFound {
		return entities.Payment{}, entities.NotFoundError{Kind: "payment", ID: paymentID}
	}
	if status != http.StatusOK {
		return entities.Payment{}, entities.UpstreamError{
			Service: gatewayService,
			Err:     fmt.Errorf("unexpected status code %d for payment %s", status, paymentID),
		}
	}
	if resp.Status == "" {
		return entities.Payment{}, entities.UpstreamError{
			Service: gatewayService,
			Err:     fmt.Errorf("payment %s without status", paymentID),
		}
	}

	return resp.toEntity(), nil
}

// do returns the status code of 2xx and 4xx responses; out is decoded for 2xx only.
// Transport errors and 5xx responses count against the circuit breaker.
func (c *PaymentsClient) do(ctx context.Context, operation string, method string, path string, body any, out any) (int, error) {
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var reqBody io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("gateway responded with %d", resp.StatusCode)
		}

		if resp.StatusCode < 300 && out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("could not decode gateway response: %w", err)
			}
		}

		return resp.StatusCode, nil
	})

	status := "error"
	if err == nil {
		status = strconv.Itoa(result.(int))
	}
	metrics.GatewayRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return 0, entities.UpstreamError{Service: gatewayService, Err: err}
	}

	return result.(int), nil
}

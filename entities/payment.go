package entities

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentOpen     PaymentStatus = "open"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentCanceled PaymentStatus = "canceled"
	PaymentExpired  PaymentStatus = "expired"
)

type PaymentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	RedirectURL string
	WebhookURL  string
	Metadata    map[string]string
}

type Payment struct {
	ID          string
	Status      PaymentStatus
	CheckoutURL string
}

package entities

type CancelOrderTickets_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID string               `json:"payment_id"`
	Reason    ReconciliationReason `json:"reason"`
}

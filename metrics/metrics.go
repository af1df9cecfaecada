package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "reservations_total",
			Help:      "Ticket units requested at fulfillment, by outcome",
		},
		[]string{"outcome"},
	)

	Fulfillments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "fulfillments_total",
			Help:      "Payment confirmations handled, by outcome",
		},
		[]string{"outcome"},
	)

	TicketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "tickets_issued_total",
			Help:      "Tickets issued",
		},
	)

	Redemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "redemptions_total",
			Help:      "Ticket scans, by result",
		},
		[]string{"result"},
	)

	ReconciliationsRequired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "reconciliations_required_total",
			Help:      "Orders left for manual refund, by reason",
		},
		[]string{"reason"},
	)

	TicketDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "ticket_deliveries_total",
			Help:      "Ticket emails, by status",
		},
		[]string{"status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "boxoffice",
			Name:      "gateway_request_duration_seconds",
			Help:      "Duration of payment gateway calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	ExpiredOrders = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "expired_orders_total",
			Help:      "Pending orders expired without payment",
		},
	)
)

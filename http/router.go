package http

import (
	"crypto/subtle"
	"net/http"

	libHttp "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

type AdminCredentials struct {
	User     string
	Password string
}

type RouterDeps struct {
	Orders          OrderService
	Events          EventRepository
	Tiers           TierRepository
	OrderRepo       OrderRepository
	Tickets         TicketRepository
	Reconciliations ReconciliationRepository
	CommandBus      CommandBus

	Admin AdminCredentials
}

func NewHttpRouter(deps RouterDeps) *echo.Echo {
	e := libHttp.NewEcho()

	e.Use(otelecho.Middleware("boxoffice"))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler := Handler{
		orders:          deps.Orders,
		events:          deps.Events,
		tiers:           deps.Tiers,
		orderRepo:       deps.OrderRepo,
		tickets:         deps.Tickets,
		reconciliations: deps.Reconciliations,
		commandBus:      deps.CommandBus,
	}

	e.GET("/events", handler.GetEvents)
	e.GET("/events/:event_id/tiers", handler.GetEventTiers)
	e.POST("/orders", handler.PostOrder)
	e.GET("/orders/:payment_id", handler.GetOrder)
	e.POST("/webhooks/payments", handler.PostPaymentWebhook)
	e.GET("/validate/:code", handler.GetValidate)

	admin := e.Group("/admin", middleware.BasicAuth(adminAuth(deps.Admin)))
	admin.POST("/events", handler.PostEvent)
	admin.POST("/events/:event_id/tiers", handler.PostTier)
	admin.PATCH("/tiers/:tier_id", handler.PatchTier)
	admin.PUT("/orders/:payment_id/cancel", handler.PutCancelOrder)
	admin.GET("/reconciliations", handler.GetReconciliations)

	return e
}

// adminAuth rejects the request before any admin handler runs.
func adminAuth(creds AdminCredentials) middleware.BasicAuthValidator {
	return func(user, password string, c echo.Context) (bool, error) {
		if creds.User == "" || creds.Password == "" {
			return false, nil
		}
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(creds.User)) == 1
		passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(creds.Password)) == 1
		return userOK && passwordOK, nil
	}
}

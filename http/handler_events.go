package http

import (
	"net/http"
	"time"

	"boxoffice/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type eventRequest struct {
	EventID  uuid.UUID `json:"event_id"`
	Name     string    `json:"name"`
	Venue    string    `json:"venue"`
	StartsAt time.Time `json:"starts_at"`
}

type tierRequest struct {
	TierID   uuid.UUID           `json:"tier_id"`
	Name     string              `json:"name"`
	Price    decimal.Decimal     `json:"price"`
	Capacity int                 `json:"capacity"`
	Status   entities.TierStatus `json:"status"`
}

type eventWithTiers struct {
	entities.Event
	Tiers []entities.Tier `json:"tiers"`
}

func (h Handler) GetEvents(c echo.Context) error {
	events, err := h.events.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, events)
}

func (h Handler) GetEventTiers(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	ctx := c.Request().Context()

	event, err := h.events.EventByID(ctx, eventID)
	if err != nil {
		return toHTTPError(err)
	}

	tiers, err := h.tiers.TiersByEvent(ctx, eventID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, eventWithTiers{Event: event, Tiers: tiers})
}

func (h Handler) PostEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.StartsAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "starts_at is required")
	}

	resp, err := h.events.Create(c.Request().Context(), entities.Event{
		EventID:  req.EventID,
		Name:     req.Name,
		Venue:    req.Venue,
		StartsAt: req.StartsAt,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h Handler) PostTier(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	var req tierRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	ctx := c.Request().Context()

	if _, err := h.events.EventByID(ctx, eventID); err != nil {
		return toHTTPError(err)
	}

	tier, err := h.tiers.Create(ctx, entities.Tier{
		TierID:   req.TierID,
		EventID:  eventID,
		Name:     req.Name,
		Price:    req.Price,
		Capacity: req.Capacity,
		Status:   req.Status,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, tier)
}

func (h Handler) PatchTier(c echo.Context) error {
	tierID, err := uuid.Parse(c.Param("tier_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tier id")
	}

	var update entities.TierUpdate
	if err := c.Bind(&update); err != nil {
		return err
	}

	tier, err := h.tiers.Update(c.Request().Context(), tierID, update)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, tier)
}

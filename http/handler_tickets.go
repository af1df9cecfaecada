package http

import (
	"net/http"

	"boxoffice/entities"
	"boxoffice/metrics"

	"github.com/labstack/echo/v4"
)

type validationResponse struct {
	Code   string                    `json:"code"`
	Result entities.RedemptionResult `json:"result"`
}

var redemptionStatus = map[entities.RedemptionResult]int{
	entities.RedemptionValid:       http.StatusOK,
	entities.RedemptionAlreadyUsed: http.StatusGone,
	entities.RedemptionNotFound:    http.StatusNotFound,
}

// GetValidate redeems the ticket. Scanners rely on the status codes.
func (h Handler) GetValidate(c echo.Context) error {
	code := c.Param("code")

	result, err := h.tickets.Validate(c.Request().Context(), code)
	if err != nil {
		return err
	}

	metrics.Redemptions.WithLabelValues(string(result)).Inc()

	return c.JSON(redemptionStatus[result], validationResponse{
		Code:   code,
		Result: result,
	})
}

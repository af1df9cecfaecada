package http

import (
	"errors"
	"net/http"

	"boxoffice/entities"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// toHTTPError maps the error taxonomy to status codes. Unknown errors are
// returned as they are and end up as 500.
func toHTTPError(err error) error {
	var (
		validation entities.ValidationError
		notFound   entities.NotFoundError
		conflict   entities.ConflictError
		upstream   entities.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, errorResponse{Error: validation.Error()})
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, errorResponse{Error: conflict.Error(), Reason: string(conflict.Reason)})
	case errors.As(err, &upstream):
		return echo.NewHTTPError(http.StatusBadGateway, errorResponse{Error: upstream.Error()}).SetInternal(err)
	}

	return err
}

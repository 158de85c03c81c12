package postalcode

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
)

type Handler struct {
	lookup  Lookuper
	metrics *metrics.Collector
}

func NewHandler(l Lookuper, col *metrics.Collector) *Handler {
	return &Handler{lookup: l, metrics: col}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/postal-codes/:code", h.handleLookup)
}

func (h *Handler) handleLookup(c echo.Context) error {
	addr, err := h.lookup.Lookup(c.Request().Context(), c.Param("code"))
	switch {
	case err == nil:
		h.metrics.PostalCodeLookup("found")
		return c.JSON(http.StatusOK, addr)
	case errors.Is(err, ErrInvalidCode):
		h.metrics.PostalCodeLookup("invalid")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		h.metrics.PostalCodeLookup("not_found")
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnavailable):
		h.metrics.PostalCodeLookup("unavailable")
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrUnavailable.Error()).SetInternal(err)
	default:
		h.metrics.PostalCodeLookup("error")
		return echo.NewHTTPError(http.StatusInternalServerError, "postal code lookup failed").SetInternal(err)
	}
}

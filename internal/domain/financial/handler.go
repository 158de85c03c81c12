package financial

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/finance/summary", h.GetSummary)
	api.GET("/dashboard", h.GetDashboard)
}

// GetSummary reads the month as YYYY-MM and defaults to the current one.
func (h *Handler) GetSummary(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	year, month := h.svc.CurrentMonth()
	if v := c.QueryParam("month"); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be YYYY-MM")
		}
		year, month = t.Year(), t.Month()
	}

	sum, err := h.svc.MonthlySummary(c.Request().Context(), ownerID, year, month)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard(c.Request().Context(), ownerID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

package scheduling

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/today", h.TodayAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments", h.CreateAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)
	api.GET("/patients/:id/appointments", h.ListPatientAppointments)

	api.GET("/care-types", h.ListCareTypes)
	api.GET("/care-types/:id", h.GetCareType)
	api.POST("/care-types", h.CreateCareType)
	api.PUT("/care-types/:id", h.UpdateCareType)
	api.DELETE("/care-types/:id", h.DeleteCareType)
}

func ownerAndID(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return ownerID, id, nil
}

// -- Appointment Handlers --

// CreateAppointment stores one appointment, or one per entry of "slots".
// A replicated request answers with the array of created appointments.
func (h *Handler) CreateAppointment(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.OwnerID = ownerID
	appts, err := h.svc.CreateAppointments(c.Request().Context(), &req)
	if err != nil {
		return apperr.HTTP(err)
	}
	if len(req.Slots) > 0 {
		return c.JSON(http.StatusCreated, appts)
	}
	return c.JSON(http.StatusCreated, appts[0])
}

func (h *Handler) GetAppointment(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var dr dateonly.Range
	if v := c.QueryParam("from"); v != "" {
		if dr.From, err = dateonly.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from: "+err.Error())
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if dr.To, err = dateonly.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to: "+err.Error())
		}
	}
	pg := pagination.FromContext(c)
	items, err := h.svc.ListAppointments(c.Request().Context(), ownerID, dr, c.QueryParam("search"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg, "/api/v1/appointments", c.Request().URL.Query()))
}

func (h *Handler) TodayAppointments(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.Today(c.Request().Context(), ownerID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForPatient(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	a.OwnerID = ownerID
	if err := h.svc.UpdateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- CareType Handlers --

func (h *Handler) CreateCareType(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var ct CareType
	if err := c.Bind(&ct); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ct.OwnerID = ownerID
	if err := h.svc.CreateCareType(c.Request().Context(), &ct); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, ct)
}

func (h *Handler) GetCareType(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	ct, err := h.svc.GetCareType(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ct)
}

func (h *Handler) ListCareTypes(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, err := h.svc.ListCareTypes(c.Request().Context(), ownerID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg, "/api/v1/care-types", c.Request().URL.Query()))
}

func (h *Handler) UpdateCareType(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var ct CareType
	if err := c.Bind(&ct); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ct.ID = id
	ct.OwnerID = ownerID
	if err := h.svc.UpdateCareType(c.Request().Context(), &ct); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ct)
}

func (h *Handler) DeleteCareType(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCareType(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

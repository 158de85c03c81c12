package clinical

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clinical-records", h.ListRecords)
	api.GET("/clinical-records/:id", h.GetRecord)
	api.POST("/clinical-records", h.CreateRecord)
	api.PUT("/clinical-records/:id", h.UpdateRecord)
	api.DELETE("/clinical-records/:id", h.DeleteRecord)
	api.GET("/patients/:id/clinical-records/latest", h.LatestRecord)

	api.GET("/evolutions", h.ListEvolutions)
	api.GET("/evolutions/:id", h.GetEvolution)
	api.POST("/evolutions", h.CreateEvolution)
	api.PUT("/evolutions/:id", h.UpdateEvolution)
	api.DELETE("/evolutions/:id", h.DeleteEvolution)
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

// patientFilter reads the optional patient_id query parameter.
func patientFilter(c echo.Context) (*uuid.UUID, error) {
	v := c.QueryParam("patient_id")
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	return &id, nil
}

// -- Record Handlers --

func (h *Handler) CreateRecord(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var r Record
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.OwnerID = ownerID
	if err := h.svc.CreateRecord(c.Request().Context(), &r); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) GetRecord(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GetRecord(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRecords(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	patientID, err := patientFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, err := h.svc.ListRecords(c.Request().Context(), ownerID, patientID, c.QueryParam("search"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg, "/api/v1/clinical-records", c.Request().URL.Query()))
}

func (h *Handler) LatestRecord(c echo.Context) error {
	ownerID, patientID, err := ownerAndID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.LatestRecord(c.Request().Context(), ownerID, patientID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var r Record
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	r.OwnerID = ownerID
	if err := h.svc.UpdateRecord(c.Request().Context(), &r); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Evolution Handlers --

func (h *Handler) CreateEvolution(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var e Evolution
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.OwnerID = ownerID
	if err := h.svc.CreateEvolution(c.Request().Context(), &e); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEvolution(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.GetEvolution(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListEvolutions(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	patientID, err := patientFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, err := h.svc.ListEvolutions(c.Request().Context(), ownerID, patientID, c.QueryParam("search"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg, "/api/v1/evolutions", c.Request().URL.Query()))
}

func (h *Handler) UpdateEvolution(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var e Evolution
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = id
	e.OwnerID = ownerID
	if err := h.svc.UpdateEvolution(c.Request().Context(), &e); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEvolution(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteEvolution(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

package expense

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
	api.GET("/expenses", h.ListExpenses)
	api.GET("/expenses/:id", h.GetExpense)
	api.POST("/expenses", h.CreateExpense)
	api.PUT("/expenses/:id", h.UpdateExpense)
	api.DELETE("/expenses/:id", h.DeleteExpense)

	api.GET("/expense-categories", h.ListCategories)
	api.GET("/expense-categories/:id", h.GetCategory)
	api.POST("/expense-categories", h.CreateCategory)
	api.PUT("/expense-categories/:id", h.UpdateCategory)
	api.DELETE("/expense-categories/:id", h.DeleteCategory)
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

// -- Expense Handlers --

func (h *Handler) CreateExpense(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var e Expense
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.OwnerID = ownerID
	if err := h.svc.CreateExpense(c.Request().Context(), &e); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetExpense(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	e, err := h.svc.GetExpense(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListExpenses(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	f := Filter{Category: c.QueryParam("category"), Search: c.QueryParam("search")}
	if v := c.QueryParam("from"); v != "" {
		if f.Range.From, err = dateonly.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from: "+err.Error())
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if f.Range.To, err = dateonly.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to: "+err.Error())
		}
	}
	pg := pagination.FromContext(c)
	items, err := h.svc.ListExpenses(c.Request().Context(), ownerID, f)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg, "/api/v1/expenses", c.Request().URL.Query()))
}

func (h *Handler) UpdateExpense(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var e Expense
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = id
	e.OwnerID = ownerID
	if err := h.svc.UpdateExpense(c.Request().Context(), &e); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteExpense(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteExpense(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Category Handlers --

func (h *Handler) ListCategories(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListCategories(c.Request().Context(), ownerID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetCategory(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	cat, err := h.svc.GetCategory(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var cat Category
	if err := c.Bind(&cat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cat.OwnerID = ownerID
	cat.Default = false
	if err := h.svc.CreateCategory(c.Request().Context(), &cat); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var cat Category
	if err := c.Bind(&cat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cat.ID = id
	cat.OwnerID = ownerID
	cat.Default = false
	if err := h.svc.UpdateCategory(c.Request().Context(), &cat); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCategory(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

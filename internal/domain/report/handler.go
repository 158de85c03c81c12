package report

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

// LetterheadCategory is the file category of uploaded letterheads.
const LetterheadCategory = "letterhead"

// Uploader stores the multipart "file" field of a request.
type Uploader interface {
	StoreForm(c echo.Context, category string) (*blobstore.File, error)
}

type Handler struct {
	svc      *Service
	uploader Uploader
}

func NewHandler(svc *Service, uploader Uploader) *Handler {
	return &Handler{svc: svc, uploader: uploader}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/report-templates", h.ListTemplates)
	api.GET("/report-templates/fields", h.ListFields)
	api.POST("/report-templates", h.CreateTemplate)
	api.POST("/report-templates/letterhead", h.UploadLetterhead)
	api.POST("/report-templates/preview", h.PreviewDraft)
	api.GET("/report-templates/:id", h.GetTemplate)
	api.PUT("/report-templates/:id", h.UpdateTemplate)
	api.DELETE("/report-templates/:id", h.DeleteTemplate)
	api.GET("/report-templates/:id/preview", h.PreviewTemplate)
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

func (h *Handler) CreateTemplate(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var t Template
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.OwnerID = ownerID
	if err := h.svc.Create(c.Request().Context(), &t); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTemplate(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Get(c.Request().Context(), ownerID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTemplates(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), ownerID, c.QueryParam("search"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.Paginate(items, pg, "/api/v1/report-templates", c.Request().URL.Query()))
}

func (h *Handler) UpdateTemplate(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var t Template
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.ID = id
	t.OwnerID = ownerID
	if err := h.svc.Update(c.Request().Context(), &t); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), ownerID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListFields(c echo.Context) error {
	return c.JSON(http.StatusOK, Fields())
}

// UploadLetterhead stores a letterhead image. When the form names a
// template_id, the template's letterhead URL is set as well.
func (h *Handler) UploadLetterhead(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var templateID uuid.UUID
	if v := strings.TrimSpace(c.FormValue("template_id")); v != "" {
		if templateID, err = uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid template_id")
		}
		if _, err := h.svc.Get(c.Request().Context(), ownerID, templateID); err != nil {
			return apperr.HTTP(err)
		}
	}

	f, err := h.uploader.StoreForm(c, LetterheadCategory)
	if err != nil {
		return err
	}
	if templateID == uuid.Nil {
		return c.JSON(http.StatusCreated, f)
	}

	t, err := h.svc.SetLetterhead(c.Request().Context(), ownerID, templateID, f.URL)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"file": f, "template": t})
}

func patientParam(c echo.Context) (*uuid.UUID, error) {
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

func (h *Handler) PreviewTemplate(c echo.Context) error {
	ownerID, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	patientID, err := patientParam(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Preview(c.Request().Context(), ownerID, id, patientID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PreviewDraft(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var req PreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.PreviewDraft(c.Request().Context(), ownerID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

package blobstore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
)

// File is the upload response: metadata plus the public URL.
type File struct {
	*Metadata
	URL string `json:"url"`
}

// Handler serves file upload, listing, deletion and public download.
type Handler struct {
	store   Store
	baseURL string
	metrics *metrics.Collector
}

// NewHandler builds a handler whose public URLs are rooted at baseURL.
func NewHandler(store Store, baseURL string, col *metrics.Collector) *Handler {
	return &Handler{store: store, baseURL: strings.TrimRight(baseURL, "/"), metrics: col}
}

// RegisterRoutes mounts the owner-scoped routes on the /api/v1 group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/files", h.handleUpload)
	api.GET("/files", h.handleList)
	api.GET("/files/:id/metadata", h.handleMetadata)
	api.DELETE("/files/:id", h.handleDelete)
}

// RegisterPublicRoutes mounts the unauthenticated download route.
func (h *Handler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/files/:id", h.handleDownload)
}

// PublicURL returns the URL under which id is served.
func (h *Handler) PublicURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/files/%s", h.baseURL, id)
}

// StoreForm stores the multipart "file" field of the request for the
// authenticated owner under category.
func (h *Handler) StoreForm(c echo.Context, category string) (*File, error) {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return nil, err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	meta, err := h.store.Put(c.Request().Context(), Metadata{
		OwnerID:  ownerID,
		FileName: fh.Filename,
		Category: category,
	}, src)
	if err != nil {
		return nil, mapError(err)
	}

	h.metrics.BlobStored(category)
	return &File{Metadata: meta, URL: h.PublicURL(meta.ID)}, nil
}

func (h *Handler) handleUpload(c echo.Context) error {
	category := strings.TrimSpace(c.FormValue("category"))
	if category == "" {
		category = "other"
	}
	f, err := h.StoreForm(c, category)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) handleList(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	items, err := h.store.List(c.Request().Context(), ownerID, c.QueryParam("category"))
	if err != nil {
		return mapError(err)
	}
	files := make([]*File, 0, len(items))
	for _, m := range items {
		files = append(files, &File{Metadata: m, URL: h.PublicURL(m.ID)})
	}
	return c.JSON(http.StatusOK, files)
}

func (h *Handler) handleMetadata(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	meta, err := h.store.Stat(c.Request().Context(), ownerID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, &File{Metadata: meta, URL: h.PublicURL(meta.ID)})
}

func (h *Handler) handleDelete(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.store.Delete(c.Request().Context(), ownerID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleDownload(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}

	rc, meta, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename=%q`, meta.FileName))
	c.Response().Header().Set("ETag", `"`+meta.Hash+`"`)
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrBlobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	case errors.Is(err, ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ErrMissingFileName), errors.Is(err, ErrEmptyFile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "file storage failed").SetInternal(err)
	}
}

package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/middleware"
	"github.com/unihaven/placement-api/internal/service"
)

// PhotoHandler serves listing photos.
type PhotoHandler struct {
	Photos *service.Photos
}

// NewPhotoHandler panics if photos is nil.
func NewPhotoHandler(photos *service.Photos) *PhotoHandler {
	if photos == nil {
		panic("nil service passed to NewPhotoHandler")
	}
	return &PhotoHandler{Photos: photos}
}

// Upload handles POST /v1/accommodations/:id/photos.  The multipart
// form carries the file in "image" plus optional caption, order and
// is_primary fields.
func (h *PhotoHandler) Upload(c echo.Context) error {
	accID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return respondError(c, service.Validation("image_required", "multipart field image is required"))
	}
	order := 0
	if raw := strings.TrimSpace(c.FormValue("order")); raw != "" {
		if order, err = strconv.Atoi(raw); err != nil {
			return respondError(c, service.Validation("invalid_order", "order must be an integer"))
		}
	}
	primary := false
	if raw := strings.TrimSpace(c.FormValue("is_primary")); raw != "" {
		if primary, err = strconv.ParseBool(raw); err != nil {
			return respondError(c, service.Validation("invalid_is_primary", "is_primary must be a boolean"))
		}
	}

	f, err := fh.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	// trust the content, not the client's header
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return respondError(c, err)
	}
	head = head[:n]

	photo, err := h.Photos.Upload(c.Request().Context(), service.PhotoUpload{
		AccommodationID: accID,
		Filename:        fh.Filename,
		ContentType:     http.DetectContentType(head),
		Size:            fh.Size,
		Body:            io.MultiReader(bytes.NewReader(head), f),
		Caption:         c.FormValue("caption"),
		Order:           order,
		IsPrimary:       primary,
	}, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, photo)
}

// List handles GET /v1/accommodations/:id/photos.
func (h *PhotoHandler) List(c echo.Context) error {
	accID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Photos.List(c.Request().Context(), accID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

// SetPrimary handles POST /v1/accommodations/:id/photos/:photo_id/primary.
func (h *PhotoHandler) SetPrimary(c echo.Context) error {
	accID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	photoID, err := parseID(c, "photo_id")
	if err != nil {
		return respondError(c, err)
	}
	photo, err := h.Photos.SetPrimary(c.Request().Context(), accID, photoID, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, photo)
}

// Delete handles DELETE /v1/accommodations/:id/photos/:photo_id.
func (h *PhotoHandler) Delete(c echo.Context) error {
	accID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	photoID, err := parseID(c, "photo_id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Photos.Delete(c.Request().Context(), accID, photoID, middleware.Actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

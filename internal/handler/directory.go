package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/service"
)

// DirectoryHandler serves members, specialists, their notifications and
// campuses.
type DirectoryHandler struct {
	Directory *service.Directory
}

// NewDirectoryHandler panics if dir is nil.
func NewDirectoryHandler(dir *service.Directory) *DirectoryHandler {
	if dir == nil {
		panic("nil service passed to NewDirectoryHandler")
	}
	return &DirectoryHandler{Directory: dir}
}

type personRequest struct {
	Name  string `json:"name" validate:"max=255"`
	Email string `json:"email" validate:"max=255"`
	Phone string `json:"phone" validate:"max=32"`
}

func (r personRequest) input() service.PersonInput {
	return service.PersonInput{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// CreateMember handles POST /v1/members.
func (h *DirectoryHandler) CreateMember(c echo.Context) error {
	var req personRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	m, err := h.Directory.CreateMember(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// GetMember handles GET /v1/members/:id.
func (h *DirectoryHandler) GetMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.Directory.GetMember(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// MemberReservations handles GET /v1/members/:id/reservations.
func (h *DirectoryHandler) MemberReservations(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Directory.MemberReservations(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

// CreateSpecialist handles POST /v1/specialists.
func (h *DirectoryHandler) CreateSpecialist(c echo.Context) error {
	var req personRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	sp, err := h.Directory.CreateSpecialist(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sp)
}

// GetSpecialist handles GET /v1/specialists/:id.
func (h *DirectoryHandler) GetSpecialist(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	sp, err := h.Directory.GetSpecialist(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sp)
}

// ListSpecialists handles GET /v1/specialists.
func (h *DirectoryHandler) ListSpecialists(c echo.Context) error {
	items, err := h.Directory.ListSpecialists(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

// Notifications handles GET /v1/specialists/:id/notifications.  Pass
// unread=true to skip notifications already read.
func (h *DirectoryHandler) Notifications(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	unread := false
	if raw := c.QueryParam("unread"); raw != "" {
		if unread, err = strconv.ParseBool(raw); err != nil {
			return respondError(c, service.Validation("invalid_unread", "unread must be a boolean"))
		}
	}
	items, err := h.Directory.SpecialistNotifications(c.Request().Context(), id, unread)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

// MarkNotificationRead handles POST /v1/notifications/:id/read.
func (h *DirectoryHandler) MarkNotificationRead(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Directory.MarkNotificationRead(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type campusRequest struct {
	Name      string   `json:"name" validate:"max=255"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// CreateCampus handles POST /v1/campuses.
func (h *DirectoryHandler) CreateCampus(c echo.Context) error {
	var req campusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	campus, err := h.Directory.CreateCampus(c.Request().Context(), service.CampusInput{
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, campus)
}

// ListCampuses handles GET /v1/campuses.
func (h *DirectoryHandler) ListCampuses(c echo.Context) error {
	items, err := h.Directory.ListCampuses(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "count": len(items)})
}

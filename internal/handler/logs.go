package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/service"
)

// LogHandler exposes the audit trail to staff.
type LogHandler struct {
	Audit *service.AuditLog
}

// NewLogHandler panics if audit is nil.
func NewLogHandler(audit *service.AuditLog) *LogHandler {
	if audit == nil {
		panic("nil service passed to NewLogHandler")
	}
	return &LogHandler{Audit: audit}
}

// List handles GET /v1/logs.  Filters are passed through as raw strings
// and validated by the audit service; page_size defaults to 20 and is
// capped at 100.
func (h *LogHandler) List(c echo.Context) error {
	q := &queryParser{c: c}
	f := service.LogFilter{
		ActionType:      q.raw("action_type"),
		UserType:        q.raw("user_type"),
		UserID:          q.raw("user_id"),
		AccommodationID: q.raw("accommodation_id"),
		StartDate:       q.raw("start_date"),
		EndDate:         q.raw("end_date"),
		Page:            q.int("page"),
		PageSize:        q.int("page_size"),
	}
	if q.err != nil {
		return respondError(c, q.err)
	}
	page, err := h.Audit.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

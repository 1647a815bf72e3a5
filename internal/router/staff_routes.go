package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/unihaven/placement-api/internal/middleware"
)

// RoleSpecialist is the token role required by staff endpoints.
const RoleSpecialist = "SPECIALIST"

// RegisterStaff registers the SPECIALIST-only endpoints under /v1:
// moderation, the audit trail, listing withdrawal and deletion, photo
// management and notifications.
func RegisterStaff(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1")
	staff := []echo.MiddlewareFunc{
		middleware.JWTAuth(o.JWTSecret),
		middleware.RequireRole(RoleSpecialist),
	}
	writes := with(append(staff, o.Invalidate)...)

	// ---- Ratings ----
	g.GET("/ratings/pending", h.Ratings.Pending, staff...)
	g.POST("/ratings/:id/moderate", h.Ratings.Moderate, staff...)

	// ---- Accommodations ----
	g.DELETE("/accommodations/:id", h.Accommodations.DeleteAccommodation, writes...)
	g.POST("/accommodations/:id/mark-unavailable", h.Accommodations.MarkUnavailable, writes...)
	g.POST("/accommodations/:id/mark-available", h.Accommodations.MarkAvailable, writes...)

	// ---- Photos ----
	upload := append([]echo.MiddlewareFunc{echomw.BodyLimit("11M")}, staff...)
	g.POST("/accommodations/:id/photos", h.Photos.Upload, upload...)
	g.POST("/accommodations/:id/photos/:photo_id/primary", h.Photos.SetPrimary, staff...)
	g.DELETE("/accommodations/:id/photos/:photo_id", h.Photos.Delete, staff...)

	// ---- Notifications ----
	g.GET("/specialists/:id/notifications", h.Directory.Notifications, staff...)
	g.POST("/notifications/:id/read", h.Directory.MarkNotificationRead, staff...)

	// ---- Audit trail ----
	g.GET("/logs", h.Logs.List, staff...)
}

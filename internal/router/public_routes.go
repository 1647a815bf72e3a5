package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/middleware"
)

// RegisterPublic registers the endpoints open to members, owners and
// anonymous callers under /v1.  A bearer token is optional; when present
// it must be valid and its subject becomes the audit actor.
//
// Middleware is attached per route rather than on the group so that
// unknown /v1 paths still answer 404 instead of 401.
func RegisterPublic(e *echo.Echo, h Handlers, o Options) {
	g := e.Group("/v1")
	auth := middleware.OptionalJWT(o.JWTSecret)
	cached := with(auth, o.Cache)
	writes := with(auth, o.Invalidate)

	// ---- Accommodations ----
	g.GET("/accommodations/search", h.Accommodations.SearchAccommodations, cached...)
	g.GET("/accommodations/unavailable", h.Accommodations.ListUnavailable, auth)
	g.POST("/accommodations/location-data", h.Accommodations.LocationData, auth)
	g.POST("/accommodations", h.Accommodations.CreateAccommodation, writes...)
	g.GET("/accommodations/:id", h.Accommodations.GetAccommodation, auth)
	g.PATCH("/accommodations/:id", h.Accommodations.UpdateAccommodation, writes...)
	g.GET("/accommodations/:id/ratings", h.Ratings.ForAccommodation, auth)
	g.GET("/accommodations/:id/photos", h.Photos.List, auth)

	// ---- Reservations ----
	g.POST("/accommodations/:id/reserve", h.Reservations.Reserve, with(auth, o.RateLimit, o.Invalidate)...)
	g.GET("/reservations/:id", h.Reservations.GetReservation, auth)
	g.POST("/reservations/:id/cancel", h.Reservations.CancelReservation, writes...)
	g.POST("/reservations/:id/update-status", h.Reservations.UpdateStatus, writes...)
	g.POST("/reservations/:id/rate", h.Reservations.Rate, auth)

	// ---- Directory ----
	g.POST("/members", h.Directory.CreateMember, auth)
	g.GET("/members/:id", h.Directory.GetMember, auth)
	g.GET("/members/:id/reservations", h.Directory.MemberReservations, auth)
	g.POST("/specialists", h.Directory.CreateSpecialist, auth)
	g.GET("/specialists", h.Directory.ListSpecialists, auth)
	g.GET("/specialists/:id", h.Directory.GetSpecialist, auth)
	g.GET("/campuses", h.Directory.ListCampuses, cached...)
	g.POST("/campuses", h.Directory.CreateCampus, writes...)
}

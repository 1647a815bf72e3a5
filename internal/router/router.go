// Package router registers the placement API routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/handler"
)

// Handlers bundles every handler the API serves.
type Handlers struct {
	Accommodations *handler.AccommodationHandler
	Reservations   *handler.ReservationHandler
	Ratings        *handler.RatingHandler
	Photos         *handler.PhotoHandler
	Directory      *handler.DirectoryHandler
	Logs           *handler.LogHandler
	Ready          *handler.ReadyHandler
}

// Options carries the cross-cutting middleware.  Cache, Invalidate and
// RateLimit may be nil, in which case the routes are registered without
// them.  Invalidate wraps every write that can change a cached read.
type Options struct {
	JWTSecret  string
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
}

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready.Ready)
	}
}

// with drops nil middleware so optional layers can be passed through
// unconditionally.
func with(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is the liveness probe used by load balancers.  It returns a
// plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyHandler reports whether the backing stores answer.
type ReadyHandler struct {
	DB    *sql.DB
	Redis *redis.Client // optional
}

// Ready handles GET /readyz.  MySQL is required; Redis is reported but
// never fails the probe because the cache and limiter fail open.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := echo.Map{"database": "ok"}
	code := http.StatusOK
	if err := h.DB.PingContext(ctx); err != nil {
		c.Logger().Warnf("readiness: database ping failed: %v", err)
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	switch {
	case h.Redis == nil:
		status["redis"] = "disabled"
	case h.Redis.Ping(ctx).Err() != nil:
		status["redis"] = "unavailable"
	default:
		status["redis"] = "ok"
	}
	return c.JSON(code, status)
}

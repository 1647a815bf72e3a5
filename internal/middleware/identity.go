package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/unihaven/placement-api/internal/model"
)

// UserID returns the authenticated subject, if any.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextUserID).(uint64)
	return id, ok && id > 0
}

// Actor converts the request identity into an audit actor.  Anonymous
// requests and unknown roles are recorded as SYSTEM.
func Actor(c echo.Context) model.Actor {
	id, ok := UserID(c)
	role, _ := c.Get(ContextRole).(string)
	typ := model.ActorType(role)
	if !ok || !typ.IsValid() || typ == model.ActorSystem {
		return model.SystemActor
	}
	return model.Actor{Type: typ, ID: &id}
}

// userKey identifies the caller in cache and rate limit keys.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

// Package middleware holds the Echo middleware of the placement API:
// bearer-token identity, role guards, the Redis response cache and the
// Redis token bucket.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth and OptionalJWT.
const (
	ContextUserID = "user_id" // uint64
	ContextRole   = "role"    // string
)

var errNoToken = errors.New("missing bearer token")

// JWTAuth requires a valid HS256 bearer token and stores its subject
// and role claims in the request context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, secret); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": err.Error()})
			}
			return next(c)
		}
	}
}

// OptionalJWT lets anonymous requests through but still rejects a
// malformed or expired token, so a caller is never silently downgraded
// to anonymous.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authenticate(c, secret)
			if err != nil && !errors.Is(err, errNoToken) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": err.Error()})
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, secret string) error {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if auth == "" {
		return errNoToken
	}
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return errNoToken
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return errors.New("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return errors.New("invalid subject")
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return errors.New("invalid subject")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return errors.New("missing role")
	}
	c.Set(ContextUserID, id)
	c.Set(ContextRole, strings.ToUpper(role))
	return nil
}

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihaven/placement-api/internal/config"
	"github.com/unihaven/placement-api/internal/model"
	"github.com/unihaven/placement-api/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

// serve runs mw around a handler that echoes the resolved actor.
func serve(mw []echo.MiddlewareFunc, auth string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		a := Actor(c)
		id := uint64(0)
		if a.ID != nil {
			id = *a.ID
		}
		return c.JSON(http.StatusOK, echo.Map{"type": a.Type, "id": id})
	}, mw...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	rec := serve([]echo.MiddlewareFunc{JWTAuth(secret)}, bearer(t, 7, "member"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"MEMBER","id":7}`, rec.Body.String())
}

func TestJWTAuthRejects(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7", "role": "MEMBER", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	expiredRaw, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "role": "MEMBER"}).
		SignedString([]byte(secret))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + mustSign(t, "other"),
		"expired":      "Bearer " + expiredRaw,
		"no expiry":    "Bearer " + noExp,
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve([]echo.MiddlewareFunc{JWTAuth(secret)}, auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func mustSign(t *testing.T, key string) string {
	tok, err := utils.NewAccessToken(key, 7, "MEMBER", time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func TestOptionalJWT(t *testing.T) {
	rec := serve([]echo.MiddlewareFunc{OptionalJWT(secret)}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"SYSTEM","id":0}`, rec.Body.String())

	rec = serve([]echo.MiddlewareFunc{OptionalJWT(secret)}, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve([]echo.MiddlewareFunc{OptionalJWT(secret)}, bearer(t, 3, "SPECIALIST"))
	assert.JSONEq(t, `{"type":"SPECIALIST","id":3}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	guard := []echo.MiddlewareFunc{JWTAuth(secret), RequireRole(string(model.ActorSpecialist))}
	assert.Equal(t, http.StatusForbidden, serve(guard, bearer(t, 7, "MEMBER")).Code)
	assert.Equal(t, http.StatusOK, serve(guard, bearer(t, 3, "specialist")).Code)
}

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	return e.NewContext(req, httptest.NewRecorder())
}

func TestCacheKeyVariesByPathAndQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "p", KeyStrategy: "route_query"}
	a := newContext("/accommodations/search?type=STUDIO")
	a.SetPath("/accommodations/search")
	b := newContext("/accommodations/search?type=HOUSE")
	b.SetPath("/accommodations/search")
	reordered := newContext("/accommodations/search?sort_by=price_asc&type=STUDIO")
	reordered.SetPath("/accommodations/search")
	sameAsReordered := newContext("/accommodations/search?type=STUDIO&sort_by=price_asc")
	sameAsReordered.SetPath("/accommodations/search")

	assert.NotEqual(t, cacheKey(cfg, a), cacheKey(cfg, b))
	assert.Equal(t, cacheKey(cfg, reordered), cacheKey(cfg, sameAsReordered))
	assert.Regexp(t, `^p:[0-9a-f]{32}$`, cacheKey(cfg, a))
}

func TestRateKeyStrategies(t *testing.T) {
	c := newContext("/accommodations/1/reserve")
	c.SetPath("/accommodations/:id/reserve")
	c.Set(ContextUserID, uint64(5))

	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:user:5:route:GET /accommodations/:id/reserve",
		rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestParseBucketResult(t *testing.T) {
	res, err := parseBucketResult([]any{int64(0), int64(0), int64(1500)})
	require.NoError(t, err)
	assert.False(t, res.allowed)
	assert.Equal(t, int64(1500), res.retryMs)

	_, err = parseBucketResult("OK")
	assert.Error(t, err)
}

func TestMiddlewareWithoutRedisIsPassthrough(t *testing.T) {
	mws := []echo.MiddlewareFunc{
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
	}
	rec := serve(mws, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCaptureWriterStopsAtLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	assert.True(t, cw.truncated)
	assert.Equal(t, "abcdef", rec.Body.String())
}

func searchCacheConfig() config.CacheConfig {
	return config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "p", KeyStrategy: "route_query"}
}

func TestCacheServesCurrentGeneration(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := searchCacheConfig()

	c := newContext("/accommodations/search?type=STUDIO")
	c.SetPath("/accommodations/search")
	stored, err := json.Marshal(cachedResponse{
		Status: http.StatusOK,
		Header: http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}},
		Body:   []byte(`{"count":1}`),
	})
	require.NoError(t, err)
	mock.ExpectGet("p:gen").SetVal("4")
	mock.ExpectGet(versionedKey(cacheKey(cfg, c), "4")).SetVal(string(stored))

	e := echo.New()
	e.GET("/accommodations/search", func(c echo.Context) error {
		assert.Fail(t, "handler ran on a cache hit")
		return nil
	}, NewRedisCache(cfg, rdb))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accommodations/search?type=STUDIO", nil))

	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionedKeyChangesWithGeneration(t *testing.T) {
	c := newContext("/accommodations/search")
	c.SetPath("/accommodations/search")
	base := cacheKey(searchCacheConfig(), c)
	assert.NotEqual(t, versionedKey(base, "3"), versionedKey(base, "4"))
	assert.Equal(t, "p:gen", generationKey(searchCacheConfig()))
}

func TestCacheInvalidator(t *testing.T) {
	cases := []struct {
		name   string
		h      echo.HandlerFunc
		bumped bool
	}{
		{"created", func(c echo.Context) error { return c.JSON(http.StatusCreated, echo.Map{}) }, true},
		{"conflict", func(c echo.Context) error { return c.JSON(http.StatusConflict, echo.Map{"error": "unavailable"}) }, false},
		{"handler error", func(echo.Context) error { return errors.New("boom") }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rdb, mock := redismock.NewClientMock()
			mock.ExpectIncr("p:gen").SetVal(1)

			e := echo.New()
			e.POST("/accommodations/:id/reserve", tc.h, NewCacheInvalidator(searchCacheConfig(), rdb))
			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/accommodations/1/reserve", nil))

			if tc.bumped {
				assert.NoError(t, mock.ExpectationsWereMet())
			} else {
				assert.Error(t, mock.ExpectationsWereMet(), "generation must not move")
			}
		})
	}
}

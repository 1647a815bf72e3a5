package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/unihaven/placement-api/internal/config"
)

// captureWriter tees the response body, up to limit bytes, while
// forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.truncated = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cachedResponse is the stored form of a 200 response.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// cacheKey builds a stable key from the configured strategy.  The
// variable part is hashed to keep keys short.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.Query().Encode()}
	default: // route_query
		parts = []string{"route", c.Path(), "q", r.URL.Query().Encode()}
	}
	// concrete path so /accommodations/1 and /accommodations/2 never collide
	parts = append(parts, "p", r.URL.Path)
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:16])
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// generationKey holds a counter bumped after every write that can
// change a cached response.  Entries are stored under the generation
// current when they were cached, so one bump orphans all of them.
func generationKey(cfg config.CacheConfig) string { return cfg.Prefix + ":gen" }

func versionedKey(base, gen string) string { return base + ":g" + gen }

// currentGeneration reads the counter; a missing counter is generation
// 0.  ok is false when Redis could not be read.
func currentGeneration(ctx context.Context, rdb *redis.Client, cfg config.CacheConfig) (gen string, ok bool) {
	gen, err := rdb.Get(ctx, generationKey(cfg)).Result()
	if err == redis.Nil {
		return "0", true
	}
	if err != nil {
		log.Debugf("cache: generation: %v", err)
		return "", false
	}
	return gen, true
}

// NewRedisCache caches successful responses of the configured methods
// in Redis.  Responses larger than MaxBodyBytes are not cached.  With
// caching disabled or no Redis client it is a no-op.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			gen, ok := currentGeneration(ctx, rdb, cfg)
			if !ok {
				return next(c)
			}
			key := versionedKey(cacheKey(cfg, c), gen)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(bs, &cached) == nil {
					return replay(c, cached)
				}
			} else if err != redis.Nil {
				log.Debugf("cache: get %s: %v", key, err)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status: cw.status,
				Header: c.Response().Header().Clone(),
				Body:   cw.buf.Bytes(),
			})
			if err == nil {
				if err := rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
					log.Debugf("cache: set %s: %v", key, err)
				}
			}
			return nil
		}
	}
}

// NewCacheInvalidator bumps the cache generation after a write
// succeeds, so no response cached before it is served again.  Failed
// writes leave the cache alone.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if status := c.Response().Status; status < http.StatusOK || status >= http.StatusMultipleChoices {
				return nil
			}
			ctx := context.WithoutCancel(c.Request().Context())
			if err := rdb.Incr(ctx, generationKey(cfg)).Err(); err != nil {
				log.Warnf("cache: invalidate: %v", err)
			}
			return nil
		}
	}
}

func replay(c echo.Context, cached cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cached.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		h[k] = append([]string(nil), vals...)
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cached.Status)
	_, err := c.Response().Write(cached.Body)
	return err
}

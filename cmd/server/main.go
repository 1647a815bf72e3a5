package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/unihaven/placement-api/internal/config"
	"github.com/unihaven/placement-api/internal/database"
	"github.com/unihaven/placement-api/internal/geo"
	"github.com/unihaven/placement-api/internal/handler"
	"github.com/unihaven/placement-api/internal/middleware"
	"github.com/unihaven/placement-api/internal/queue"
	"github.com/unihaven/placement-api/internal/router"
	"github.com/unihaven/placement-api/internal/service"
	"github.com/unihaven/placement-api/internal/storage"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.LogLevel)
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("database: schema: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	deps := service.NewDeps(db)
	deps.Location = cfg.Location
	geoCfg := config.LoadGeoConfig()
	deps.Geo = geo.NewBreaker(geo.NewHTTPLookup(geoCfg.URL, geoCfg.Timeout), geoCfg.BreakerFailures, geoCfg.BreakerCooldown)
	deps.Store = photoStore(ctx, e, config.LoadStorageConfig())
	if cfg.Events.Enabled {
		deps.Events = queue.NewPublisher(cfg.Events.URL)
	}
	if cfg.Events.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.Events.URL)
		consumer.LogPath = cfg.Events.LogPath
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("reservation-consumer: %v", err)
			}
		}()
	}

	ledger := service.NewLedger(deps)
	gate := service.NewRatingGate(deps)
	h := router.Handlers{
		Accommodations: handler.NewAccommodationHandler(service.NewAccommodations(deps), service.NewSearch(deps), ledger),
		Reservations:   handler.NewReservationHandler(ledger, service.NewReservationStates(deps, ledger), gate),
		Ratings:        handler.NewRatingHandler(gate),
		Photos:         handler.NewPhotoHandler(service.NewPhotos(deps)),
		Directory:      handler.NewDirectoryHandler(service.NewDirectory(deps)),
		Logs:           handler.NewLogHandler(service.NewAuditLog(deps)),
		Ready:          &handler.ReadyHandler{DB: db, Redis: rdb},
	}
	cacheCfg := config.LoadCacheConfig()
	opts := router.Options{
		JWTSecret:  cfg.JWTSecret,
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.NewCacheInvalidator(cacheCfg, rdb),
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	}
	router.RegisterRoutes(e, h)
	router.RegisterPublic(e, h, opts)
	router.RegisterStaff(e, h, opts)

	addr := ":" + cfg.Port
	log.Infof("listening on %s (env=%s, tz=%s)", addr, cfg.Env, cfg.Location)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server: shutdown: %v", err)
	}
}

// photoStore builds the configured photo backend.  The local backend is
// also served statically under its base URL.
func photoStore(ctx context.Context, e *echo.Echo, c config.StorageConfig) storage.PhotoStore {
	switch c.Backend {
	case config.StoreS3:
		s, err := storage.NewS3Store(ctx, c.Bucket, c.Region, c.BaseURL)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return s
	case config.StoreLocal:
		e.Static(c.BaseURL, c.Dir)
		return storage.NewLocalStore(c.Dir, c.BaseURL)
	default:
		log.Warnf("storage: unknown PHOTO_STORE %q; photo uploads disabled", c.Backend)
		return nil
	}
}

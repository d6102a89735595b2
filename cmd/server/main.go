package main // Entry point of the catalog API server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-scheduler/internal/config"
	"github.com/iliyamo/movie-scheduler/internal/database"
	"github.com/iliyamo/movie-scheduler/internal/handler"
	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/middleware"
	"github.com/iliyamo/movie-scheduler/internal/repository"
	"github.com/iliyamo/movie-scheduler/internal/router"
	"github.com/iliyamo/movie-scheduler/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("ignoring .env")
	}
	logging.Init(logging.ConfigFromEnv())

	cfg, err := config.Load() // Load environment config
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logging.Fatal().Err(err).Msg("database")
	}
	defer db.Close()

	if cfg.DBBootstrap {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			logging.Fatal().Err(err).Msg("schema bootstrap")
		}
	}

	// Events are optional; the API works the same without a broker.
	var events handler.EventPublisher
	if cfg.EventsEnabled {
		pub := service.NewEventPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub
	}

	h := handler.NewCatalogHandler(
		repository.NewMovieRepo(db),
		repository.NewActorRepo(db),
		repository.NewScheduleRepo(db),
		events,
	)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Prometheus())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	router.RegisterRoutes(e, db)

	// Redis is optional too: without it both middlewares pass requests through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logging.Warn().Msg("redis unavailable; rate limit and response cache disabled")
	} else {
		defer rdb.Close()
	}
	router.RegisterAPI(e, h,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	addr := ":" + cfg.Port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Bool("events", cfg.EventsEnabled).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("shutdown")
	}
	logging.Info().Msg("stopped")
}

package main // Entry point of the browser UI

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

	"github.com/iliyamo/movie-scheduler/internal/client"
	"github.com/iliyamo/movie-scheduler/internal/config"
	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/middleware"
	"github.com/iliyamo/movie-scheduler/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("ignoring .env")
	}
	logging.Init(logging.ConfigFromEnv())
	cfg := config.LoadWeb()

	renderer, err := web.NewRenderer()
	if err != nil {
		logging.Fatal().Err(err).Msg("templates")
	}
	api := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.APITimeout))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	web.NewPages(api).Register(e)

	addr := ":" + cfg.Port
	go func() {
		logging.Info().Str("addr", addr).Str("api", api.BaseURL()).Msg("ui listening")
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
}

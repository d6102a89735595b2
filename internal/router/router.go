package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/movie-scheduler/internal/handler"
)

// RegisterRoutes registers the operational endpoints: liveness, readiness
// against db, and the prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI mounts the catalog endpoints under /api/v1.  Middleware passed
// in mw (rate limit, response cache) applies to this group only.
func RegisterAPI(e *echo.Echo, h *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group(handler.APIBasePath, mw...)

	// ---- Movies ----
	g.GET("/movies", h.ListMovies)
	g.POST("/movies", h.CreateMovie)
	g.PUT("/movies/:id", h.UpdateMovie)
	g.DELETE("/movies/:id", h.DeleteMovie)

	// ---- Actors ----
	g.GET("/actors", h.ListActors)
	g.POST("/actors", h.CreateActor)
	g.PUT("/actors/:id", h.UpdateActor)
	g.DELETE("/actors/:id", h.DeleteActor)

	// ---- Schedules ----
	g.GET("/schedules", h.ListSchedules)
	g.POST("/schedules", h.CreateSchedule)
	g.PUT("/schedules/:id", h.UpdateSchedule)
	g.DELETE("/schedules/:id", h.DeleteSchedule)
}

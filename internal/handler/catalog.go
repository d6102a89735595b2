package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/model"
	"github.com/iliyamo/movie-scheduler/internal/queue"
	"github.com/iliyamo/movie-scheduler/internal/validation"
)

// APIBasePath prefixes every catalog route and Location header.
const APIBasePath = "/api/v1"

// MovieStore is the persistence the movie endpoints need.
// *repository.MovieRepo satisfies it.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	Exists(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id int64) error
}

// ActorStore is the persistence the actor endpoints need.
type ActorStore interface {
	Create(ctx context.Context, a *model.Actor) error
	Exists(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]model.Actor, error)
	Update(ctx context.Context, a *model.Actor) error
	Delete(ctx context.Context, id int64) error
}

// ScheduleStore is the persistence the schedule endpoints need.
type ScheduleStore interface {
	Create(ctx context.Context, s *model.Schedule) error
	Exists(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]model.ScheduleDetail, error)
	Update(ctx context.Context, s *model.Schedule) error
	Delete(ctx context.Context, id int64) error
}

// EventPublisher receives a CatalogEvent after each successful write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogEvent) error
}

// CatalogHandler serves the movie, actor and schedule endpoints.
type CatalogHandler struct {
	Movies    MovieStore
	Actors    ActorStore
	Schedules ScheduleStore
	Events    EventPublisher // optional

	publishTimeout time.Duration
}

// NewCatalogHandler wires the three stores and an optional event publisher.
// It panics if any store is nil.
func NewCatalogHandler(movies MovieStore, actors ActorStore, schedules ScheduleStore, events EventPublisher) *CatalogHandler {
	if movies == nil || actors == nil || schedules == nil {
		panic("nil store passed to NewCatalogHandler")
	}
	return &CatalogHandler{
		Movies:         movies,
		Actors:         actors,
		Schedules:      schedules,
		Events:         events,
		publishTimeout: 5 * time.Second,
	}
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeBody decodes the request body strictly with JSONSerializer,
// whatever serializer the echo instance was given.
func decodeBody(c echo.Context, dst any) error {
	return JSONSerializer{}.Deserialize(c, dst)
}

func trimRequired(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func invalidBody(c echo.Context, err error) error {
	logging.Debug().Err(err).Str("path", c.Path()).Msg("rejected request body")
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

// validationFailed writes 400 for a validation error, or 500 when err is
// something else.
func validationFailed(c echo.Context, op string, err error) error {
	if ve, ok := validation.AsError(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Message, "field": ve.Field})
	}
	return serverError(c, op, err)
}

func notFound(c echo.Context, entity string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": entity + " not found"})
}

func serverError(c echo.Context, op string, err error) error {
	logging.Error().Err(err).Str("op", op).Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Msg("store failure")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": op + " failed"})
}

func created(c echo.Context, resource string, id int64, body any) error {
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("%s/%s/%d", APIBasePath, resource, id))
	return c.JSON(http.StatusCreated, body)
}

// publish hands an event to the publisher without blocking the response.
// Failures are logged and otherwise ignored.
func (h *CatalogHandler) publish(entity, action string, id int64) {
	if h.Events == nil {
		return
	}
	ev := queue.NewCatalogEvent(entity, action, id)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.publishTimeout)
		defer cancel()
		if err := h.Events.Publish(ctx, ev); err != nil {
			logging.Warn().Err(err).Str("entity", entity).Str("action", action).Int64("id", id).Msg("catalog event not published")
		}
	}()
}

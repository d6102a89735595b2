package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-scheduler/internal/model"
	"github.com/iliyamo/movie-scheduler/internal/queue"
	"github.com/iliyamo/movie-scheduler/internal/repository"
	"github.com/iliyamo/movie-scheduler/internal/validation"
)

// Field order is the order checks are reported in.
type scheduleRequest struct {
	StartsAt *model.DateTime `json:"startsAt" validate:"required"`
	MovieID  *int64          `json:"movieId" validate:"required"`
	ActorID  *int64          `json:"actorId" validate:"required"`
	Location *string         `json:"location" validate:"omitempty,max=255"`
}

func (r *scheduleRequest) toSchedule() (*model.Schedule, error) {
	if r.StartsAt != nil && r.StartsAt.IsZero() {
		return nil, validation.Fail("startsAt", "startsAt is required")
	}
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	return &model.Schedule{
		MovieID:  *r.MovieID,
		ActorID:  *r.ActorID,
		StartsAt: *r.StartsAt,
		Location: r.Location,
	}, nil
}

// checkReferences verifies the movie, then the actor.  A missing row is a
// validation error, not a 404.
func (h *CatalogHandler) checkReferences(ctx context.Context, s *model.Schedule) error {
	ok, err := h.Movies.Exists(ctx, s.MovieID)
	if err != nil {
		return err
	}
	if !ok {
		return validation.Fail("movieId", "movieId %d does not exist", s.MovieID)
	}
	ok, err = h.Actors.Exists(ctx, s.ActorID)
	if err != nil {
		return err
	}
	if !ok {
		return validation.Fail("actorId", "actorId %d does not exist", s.ActorID)
	}
	return nil
}

func danglingReference(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrDanglingReference.Error()})
}

// CreateSchedule handles POST /api/v1/schedules.
func (h *CatalogHandler) CreateSchedule(c echo.Context) error {
	var req scheduleRequest
	if err := decodeBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	s, err := req.toSchedule()
	if err != nil {
		return validationFailed(c, "create schedule", err)
	}
	ctx := c.Request().Context()
	if err := h.checkReferences(ctx, s); err != nil {
		return validationFailed(c, "create schedule", err)
	}
	if err := h.Schedules.Create(ctx, s); err != nil {
		if errors.Is(err, repository.ErrDanglingReference) {
			return danglingReference(c)
		}
		return serverError(c, "create schedule", err)
	}
	h.publish(queue.EntitySchedule, queue.ActionCreated, s.ID)
	return created(c, "schedules", s.ID, s)
}

// ListSchedules handles GET /api/v1/schedules.  Each entry carries the
// joined movie title and actor name.
func (h *CatalogHandler) ListSchedules(c echo.Context) error {
	items, err := h.Schedules.ListAll(c.Request().Context())
	if err != nil {
		return serverError(c, "list schedules", err)
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateSchedule handles PUT /api/v1/schedules/:id.  Checks run in order:
// fields, schedule existence, movie, actor.
func (h *CatalogHandler) UpdateSchedule(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req scheduleRequest
	if err := decodeBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	s, err := req.toSchedule()
	if err != nil {
		return validationFailed(c, "update schedule", err)
	}
	ctx := c.Request().Context()
	exists, err := h.Schedules.Exists(ctx, id)
	if err != nil {
		return serverError(c, "update schedule", err)
	}
	if !exists {
		return notFound(c, "schedule")
	}
	if err := h.checkReferences(ctx, s); err != nil {
		return validationFailed(c, "update schedule", err)
	}
	s.ID = id
	if err := h.Schedules.Update(ctx, s); err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return notFound(c, "schedule")
		case errors.Is(err, repository.ErrDanglingReference):
			return danglingReference(c)
		}
		return serverError(c, "update schedule", err)
	}
	h.publish(queue.EntitySchedule, queue.ActionUpdated, id)
	return c.JSON(http.StatusOK, s)
}

// DeleteSchedule handles DELETE /api/v1/schedules/:id.
func (h *CatalogHandler) DeleteSchedule(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.Schedules.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return notFound(c, "schedule")
		}
		return serverError(c, "delete schedule", err)
	}
	h.publish(queue.EntitySchedule, queue.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

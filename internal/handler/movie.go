package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-scheduler/internal/model"
	"github.com/iliyamo/movie-scheduler/internal/queue"
	"github.com/iliyamo/movie-scheduler/internal/repository"
	"github.com/iliyamo/movie-scheduler/internal/validation"
)

type movieRequest struct {
	Title           *string     `json:"title" validate:"required,min=1,max=255"`
	Description     *string     `json:"description"`
	DurationMinutes *int        `json:"durationMinutes" validate:"required,min=0,max=2147483647"`
	ReleaseDate     *model.Date `json:"releaseDate"`
}

// maxDescriptionBytes is the capacity of the TEXT column.
const maxDescriptionBytes = 65535

// toMovie trims the title and validates the request.  The description is
// stored as sent.
func (r *movieRequest) toMovie() (*model.Movie, error) {
	trimRequired(r.Title)
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionBytes {
		return nil, validation.Fail("description", "description must be at most %d bytes", maxDescriptionBytes)
	}
	return &model.Movie{
		Title:           *r.Title,
		Description:     r.Description,
		DurationMinutes: *r.DurationMinutes,
		ReleaseDate:     r.ReleaseDate,
	}, nil
}

// CreateMovie handles POST /api/v1/movies.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req movieRequest
	if err := decodeBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	m, err := req.toMovie()
	if err != nil {
		return validationFailed(c, "create movie", err)
	}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return serverError(c, "create movie", err)
	}
	h.publish(queue.EntityMovie, queue.ActionCreated, m.ID)
	return created(c, "movies", m.ID, m)
}

// ListMovies handles GET /api/v1/movies.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	items, err := h.Movies.ListAll(c.Request().Context())
	if err != nil {
		return serverError(c, "list movies", err)
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateMovie handles PUT /api/v1/movies/:id.  Every mutable field is
// replaced.
func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req movieRequest
	if err := decodeBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	m, err := req.toMovie()
	if err != nil {
		return validationFailed(c, "update movie", err)
	}
	m.ID = id
	if err := h.Movies.Update(c.Request().Context(), m); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie")
		}
		return serverError(c, "update movie", err)
	}
	h.publish(queue.EntityMovie, queue.ActionUpdated, id)
	return c.JSON(http.StatusOK, m)
}

// DeleteMovie handles DELETE /api/v1/movies/:id.  Schedules of the movie go
// with it.
func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie")
		}
		return serverError(c, "delete movie", err)
	}
	h.publish(queue.EntityMovie, queue.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

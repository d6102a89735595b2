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

type actorRequest struct {
	FirstName *string     `json:"firstName" validate:"required,min=1,max=255"`
	LastName  *string     `json:"lastName" validate:"required,min=1,max=255"`
	BirthDate *model.Date `json:"birthDate"`
}

func (r *actorRequest) toActor() (*model.Actor, error) {
	trimRequired(r.FirstName)
	trimRequired(r.LastName)
	if err := validation.Struct(r); err != nil {
		return nil, err
	}
	return &model.Actor{FirstName: *r.FirstName, LastName: *r.LastName, BirthDate: r.BirthDate}, nil
}

// CreateActor handles POST /api/v1/actors.
func (h *CatalogHandler) CreateActor(c echo.Context) error {
	var req actorRequest
	if err := decodeBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	a, err := req.toActor()
	if err != nil {
		return validationFailed(c, "create actor", err)
	}
	if err := h.Actors.Create(c.Request().Context(), a); err != nil {
		return serverError(c, "create actor", err)
	}
	h.publish(queue.EntityActor, queue.ActionCreated, a.ID)
	return created(c, "actors", a.ID, a)
}

// ListActors handles GET /api/v1/actors.
func (h *CatalogHandler) ListActors(c echo.Context) error {
	items, err := h.Actors.ListAll(c.Request().Context())
	if err != nil {
		return serverError(c, "list actors", err)
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateActor handles PUT /api/v1/actors/:id.
func (h *CatalogHandler) UpdateActor(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var req actorRequest
	if err := decodeBody(c, &req); err != nil {
		return invalidBody(c, err)
	}
	a, err := req.toActor()
	if err != nil {
		return validationFailed(c, "update actor", err)
	}
	a.ID = id
	if err := h.Actors.Update(c.Request().Context(), a); err != nil {
		if errors.Is(err, repository.ErrActorNotFound) {
			return notFound(c, "actor")
		}
		return serverError(c, "update actor", err)
	}
	h.publish(queue.EntityActor, queue.ActionUpdated, id)
	return c.JSON(http.StatusOK, a)
}

// DeleteActor handles DELETE /api/v1/actors/:id.
func (h *CatalogHandler) DeleteActor(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.Actors.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrActorNotFound) {
			return notFound(c, "actor")
		}
		return serverError(c, "delete actor", err)
	}
	h.publish(queue.EntityActor, queue.ActionDeleted, id)
	return c.NoContent(http.StatusNoContent)
}

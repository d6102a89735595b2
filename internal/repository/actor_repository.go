package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-scheduler/internal/model"
)

// ErrActorNotFound is returned when an actor lookup fails.
var ErrActorNotFound = errors.New("actor not found")

// ActorRepo provides persistence for actors.
type ActorRepo struct {
	db *sql.DB
}

// NewActorRepo constructs an ActorRepo with the given DB handle.
func NewActorRepo(db *sql.DB) *ActorRepo {
	return &ActorRepo{db: db}
}

const actorColumns = "id, first_name, last_name, birth_date"

func scanActor(s rowScanner, a *model.Actor) error {
	var birth sql.NullTime
	if err := s.Scan(&a.ID, &a.FirstName, &a.LastName, &birth); err != nil {
		return err
	}
	a.BirthDate = datePtr(birth)
	return nil
}

// Create inserts a new actor and reads the stored row back into a.
func (r *ActorRepo) Create(ctx context.Context, a *model.Actor) error {
	const q = `INSERT INTO actors (first_name, last_name, birth_date) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.FirstName, a.LastName, nullDate(a.BirthDate))
	if err != nil {
		return fmt.Errorf("insert actor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert actor: %w", err)
	}
	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

// GetByID retrieves an actor or ErrActorNotFound.
func (r *ActorRepo) GetByID(ctx context.Context, id int64) (*model.Actor, error) {
	const q = "SELECT " + actorColumns + " FROM actors WHERE id = ?"
	var a model.Actor
	if err := scanActor(r.db.QueryRowContext(ctx, q, id), &a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActorNotFound
		}
		return nil, fmt.Errorf("get actor %d: %w", id, err)
	}
	return &a, nil
}

// Exists reports whether an actor with id is present.
func (r *ActorRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM actors WHERE id = ?)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("actor exists %d: %w", id, err)
	}
	return ok, nil
}

// ListAll returns every actor ordered by id.
func (r *ActorRepo) ListAll(ctx context.Context) ([]model.Actor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+actorColumns+" FROM actors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	out := make([]model.Actor, 0)
	for rows.Next() {
		var a model.Actor
		if err := scanActor(rows, &a); err != nil {
			return nil, fmt.Errorf("list actors: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return out, nil
}

// Update overwrites names and birth date.  Returns ErrActorNotFound when
// no row matches.
func (r *ActorRepo) Update(ctx context.Context, a *model.Actor) error {
	const q = `UPDATE actors SET first_name = ?, last_name = ?, birth_date = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, a.FirstName, a.LastName, nullDate(a.BirthDate), a.ID)
	if err != nil {
		return fmt.Errorf("update actor %d: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrActorNotFound
	}
	return nil
}

// Delete removes an actor together with the schedules referencing it.
func (r *ActorRepo) Delete(ctx context.Context, id int64) error {
	return deleteWithSchedules(ctx, r.db, "actors", "actor_id", id, ErrActorNotFound)
}

// Package repository contains data access logic separated from HTTP handlers.
// Each repository wraps a *sql.DB and issues hand-written MySQL statements;
// lookups that miss return a per-entity sentinel error.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-scheduler/internal/model"
)

// ErrMovieNotFound is returned when a movie cannot be found in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo encapsulates all queries on the movies table.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, title, description, duration_minutes, release_date"

func scanMovie(s rowScanner, m *model.Movie) error {
	var (
		desc    sql.NullString
		release sql.NullTime
	)
	if err := s.Scan(&m.ID, &m.Title, &desc, &m.DurationMinutes, &release); err != nil {
		return err
	}
	m.Description = stringPtr(desc)
	m.ReleaseDate = datePtr(release)
	return nil
}

// Create inserts a new movie.  On success the ID is populated and the row
// is read back so the caller sees exactly what was stored.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, description, duration_minutes, release_date) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, nullString(m.Description), m.DurationMinutes, nullDate(m.ReleaseDate))
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// GetByID fetches a movie.  It returns ErrMovieNotFound if no row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id int64) (*model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	var m model.Movie
	if err := scanMovie(r.db.QueryRowContext(ctx, q, id), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &m, nil
}

// Exists reports whether a movie with id is present.
func (r *MovieRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM movies WHERE id = ?)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("movie exists %d: %w", id, err)
	}
	return ok, nil
}

// ListAll returns every movie ordered by id.  The slice is never nil.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	const q = "SELECT " + movieColumns + " FROM movies ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, fmt.Errorf("list movies: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return out, nil
}

// Update overwrites every mutable column of m.ID.  It returns
// ErrMovieNotFound when no row matches.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
	           SET title = ?, description = ?, duration_minutes = ?, release_date = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, nullString(m.Description), m.DurationMinutes, nullDate(m.ReleaseDate), m.ID)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Delete removes a movie and its screening schedules in one transaction.
// Schedules are deleted explicitly so the cascade holds even where the
// foreign key lacks ON DELETE CASCADE.
func (r *MovieRepo) Delete(ctx context.Context, id int64) error {
	return deleteWithSchedules(ctx, r.db, "movies", "movie_id", id, ErrMovieNotFound)
}

// deleteWithSchedules removes the dependent schedules first, then the parent
// row.  A parent that does not exist rolls the transaction back and yields
// notFound.
func deleteWithSchedules(ctx context.Context, db *sql.DB, table, fkColumn string, id int64, notFound error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM screening_schedules WHERE "+fkColumn+" = ?", id); err != nil {
		return fmt.Errorf("delete %s %d schedules: %w", table, id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = notFound
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("delete %s %d: commit: %w", table, id, err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-scheduler/internal/model"
)

// ErrScheduleNotFound indicates that a screening schedule was not located in the DB.
var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleRepo manages persistence for screening schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

const scheduleColumns = "id, movie_id, actor_id, starts_at, location"

func scanSchedule(s rowScanner, sc *model.Schedule) error {
	var (
		startsAt sql.NullTime
		location sql.NullString
	)
	if err := s.Scan(&sc.ID, &sc.MovieID, &sc.ActorID, &startsAt, &location); err != nil {
		return err
	}
	if startsAt.Valid {
		sc.StartsAt = model.DateTimeOf(startsAt.Time)
	}
	sc.Location = stringPtr(location)
	return nil
}

// Create inserts a schedule and reads the row back, like the movie and actor
// repositories.  The caller has already checked that the movie and actor
// exist; a foreign key failure racing that check is reported as
// ErrDanglingReference.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO screening_schedules (movie_id, actor_id, starts_at, location) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.ActorID, s.StartsAt.Time(), nullString(s.Location))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrDanglingReference
		}
		return fmt.Errorf("insert schedule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*s = *stored
	return nil
}

// GetByID retrieves a schedule or ErrScheduleNotFound.
func (r *ScheduleRepo) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	const q = "SELECT " + scheduleColumns + " FROM screening_schedules WHERE id = ?"
	var s model.Schedule
	if err := scanSchedule(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule %d: %w", id, err)
	}
	return &s, nil
}

// Exists reports whether a schedule with id is present.
func (r *ScheduleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM screening_schedules WHERE id = ?)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("schedule exists %d: %w", id, err)
	}
	return ok, nil
}

// ListAll returns every schedule ordered by id, joined with its movie and
// actor.  Rows whose movie or actor is missing keep a nil Movie/Actor and
// empty labels.
func (r *ScheduleRepo) ListAll(ctx context.Context) ([]model.ScheduleDetail, error) {
	const q = `SELECT s.id, s.movie_id, s.actor_id, s.starts_at, s.location,
	                  m.id, m.title, m.description, m.duration_minutes, m.release_date,
	                  a.id, a.first_name, a.last_name, a.birth_date
	           FROM screening_schedules s
	           LEFT JOIN movies m ON m.id = s.movie_id
	           LEFT JOIN actors a ON a.id = s.actor_id
	           ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	out := make([]model.ScheduleDetail, 0)
	for rows.Next() {
		var (
			d        model.ScheduleDetail
			startsAt sql.NullTime
			location sql.NullString

			movieID      sql.NullInt64
			movieTitle   sql.NullString
			movieDesc    sql.NullString
			movieMinutes sql.NullInt64
			movieRelease sql.NullTime

			actorID    sql.NullInt64
			actorFirst sql.NullString
			actorLast  sql.NullString
			actorBirth sql.NullTime
		)
		if err := rows.Scan(
			&d.ID, &d.MovieID, &d.ActorID, &startsAt, &location,
			&movieID, &movieTitle, &movieDesc, &movieMinutes, &movieRelease,
			&actorID, &actorFirst, &actorLast, &actorBirth,
		); err != nil {
			return nil, fmt.Errorf("list schedules: %w", err)
		}
		if startsAt.Valid {
			d.StartsAt = model.DateTimeOf(startsAt.Time)
		}
		d.Location = stringPtr(location)
		if movieID.Valid {
			d.Movie = &model.Movie{
				ID:              movieID.Int64,
				Title:           movieTitle.String,
				Description:     stringPtr(movieDesc),
				DurationMinutes: int(movieMinutes.Int64),
				ReleaseDate:     datePtr(movieRelease),
			}
			d.MovieTitle = d.Movie.Title
		}
		if actorID.Valid {
			d.Actor = &model.Actor{
				ID:        actorID.Int64,
				FirstName: actorFirst.String,
				LastName:  actorLast.String,
				BirthDate: datePtr(actorBirth),
			}
			d.ActorName = d.Actor.FullName()
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

// Update overwrites movie, actor, start time and location of s.ID.
func (r *ScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	const q = `UPDATE screening_schedules
	           SET movie_id = ?, actor_id = ?, starts_at = ?, location = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.ActorID, s.StartsAt.Time(), nullString(s.Location), s.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrDanglingReference
		}
		return fmt.Errorf("update schedule %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Delete hard-deletes a schedule.
func (r *ScheduleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM screening_schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

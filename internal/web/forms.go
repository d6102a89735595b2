package web

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/model"
	"github.com/iliyamo/movie-scheduler/internal/validation"
)

// ErrInvalidForm is returned by Submit when a client-side check fails; the
// API is not called.
var ErrInvalidForm = errors.New("form has invalid fields")

// Saver is the part of an API resource a form needs.
type Saver[T, In any] interface {
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id int64, in In) (T, error)
}

// Lister fetches a whole collection.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// formState is shared by every form: field errors from the last
// validation, the generic failure message and the in-flight flag.
type formState struct {
	FieldErrors map[string]string
	Error       string
	Saving      bool
}

// FieldError returns the message for field, if any.
func (s *formState) FieldError(field string) string { return s.FieldErrors[field] }

func (s *formState) fail(field, msg string) bool {
	s.FieldErrors = map[string]string{field: msg}
	return false
}

// check runs the shared validator over fields and records the first error.
func (s *formState) check(fields any) bool {
	s.FieldErrors = nil
	if err := validation.Struct(fields); err != nil {
		if ve, ok := validation.AsError(err); ok {
			return s.fail(ve.Field, ve.Message)
		}
		return s.fail("", err.Error())
	}
	return true
}

// save calls create or update depending on id and maintains Saving/Error.
func save[T, In any](ctx context.Context, s *formState, api Saver[T, In], id int64, in In) error {
	s.Error = ""
	s.Saving = true
	var err error
	if id > 0 {
		_, err = api.Update(ctx, id, in)
	} else {
		_, err = api.Create(ctx, in)
	}
	if err != nil {
		logging.Error().Err(err).Int64("id", id).Msg("save failed")
		s.Saving = false
		s.Error = MsgSavingFailed
		return err
	}
	return nil
}

// optionalText trims s and maps blank to nil.
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseOptionalDate(s string) (*model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MovieForm holds the raw input of the movie create/edit page.
type MovieForm struct {
	formState
	ID              int64
	Title           string
	Description     string
	DurationMinutes string
	ReleaseDate     string
}

// MovieFormFrom pre-populates an edit form.
func MovieFormFrom(m model.Movie) *MovieForm {
	return &MovieForm{
		ID:              m.ID,
		Title:           m.Title,
		Description:     optional(m.Description),
		DurationMinutes: strconv.Itoa(m.DurationMinutes),
		ReleaseDate:     optionalDate(m.ReleaseDate),
	}
}

// IsEdit reports whether the form updates an existing movie.
func (f *MovieForm) IsEdit() bool { return f.ID > 0 }

type movieFields struct {
	Title           string `json:"title" validate:"required,max=255"`
	DurationMinutes *int   `json:"durationMinutes" validate:"required,min=0,max=2147483647"`
}

// Validate runs the client-side checks and returns the API body.
func (f *MovieForm) Validate() (model.MovieInput, bool) {
	fields := movieFields{Title: strings.TrimSpace(f.Title)}
	if d := strings.TrimSpace(f.DurationMinutes); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			return model.MovieInput{}, f.fail("durationMinutes", "durationMinutes must be a whole number")
		}
		fields.DurationMinutes = &n
	}
	if !f.check(fields) {
		return model.MovieInput{}, false
	}
	release, err := parseOptionalDate(f.ReleaseDate)
	if err != nil {
		return model.MovieInput{}, f.fail("releaseDate", "releaseDate must be YYYY-MM-DD")
	}
	return model.MovieInput{
		Title:           fields.Title,
		Description:     optionalText(f.Description),
		DurationMinutes: *fields.DurationMinutes,
		ReleaseDate:     release,
	}, true
}

// Submit validates the form and creates or updates the movie.
func (f *MovieForm) Submit(ctx context.Context, api Saver[model.Movie, model.MovieInput]) error {
	in, ok := f.Validate()
	if !ok {
		return ErrInvalidForm
	}
	return save(ctx, &f.formState, api, f.ID, in)
}

// ActorForm holds the raw input of the actor create/edit page.
type ActorForm struct {
	formState
	ID        int64
	FirstName string
	LastName  string
	BirthDate string
}

// ActorFormFrom pre-populates an edit form.
func ActorFormFrom(a model.Actor) *ActorForm {
	return &ActorForm{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, BirthDate: optionalDate(a.BirthDate)}
}

// IsEdit reports whether the form updates an existing actor.
func (f *ActorForm) IsEdit() bool { return f.ID > 0 }

type actorFields struct {
	FirstName string `json:"firstName" validate:"required,max=255"`
	LastName  string `json:"lastName" validate:"required,max=255"`
}

// Validate runs the client-side checks and returns the API body.
func (f *ActorForm) Validate() (model.ActorInput, bool) {
	fields := actorFields{FirstName: strings.TrimSpace(f.FirstName), LastName: strings.TrimSpace(f.LastName)}
	if !f.check(fields) {
		return model.ActorInput{}, false
	}
	birth, err := parseOptionalDate(f.BirthDate)
	if err != nil {
		return model.ActorInput{}, f.fail("birthDate", "birthDate must be YYYY-MM-DD")
	}
	return model.ActorInput{FirstName: fields.FirstName, LastName: fields.LastName, BirthDate: birth}, true
}

// Submit validates the form and creates or updates the actor.
func (f *ActorForm) Submit(ctx context.Context, api Saver[model.Actor, model.ActorInput]) error {
	in, ok := f.Validate()
	if !ok {
		return ErrInvalidForm
	}
	return save(ctx, &f.formState, api, f.ID, in)
}

// ScheduleForm holds the raw input of the schedule create/edit page and the
// option lists of its two selects.
type ScheduleForm struct {
	formState
	ID       int64
	MovieID  string
	ActorID  string
	StartsAt string // datetime-local value, seconds optional
	Location string

	Movies []model.Movie
	Actors []model.Actor
}

// ScheduleFormFrom pre-populates an edit form.
func ScheduleFormFrom(s model.ScheduleDetail) *ScheduleForm {
	return &ScheduleForm{
		ID:       s.ID,
		MovieID:  strconv.FormatInt(s.MovieID, 10),
		ActorID:  strconv.FormatInt(s.ActorID, 10),
		StartsAt: s.StartsAt.String(),
		Location: optional(s.Location),
	}
}

// IsEdit reports whether the form updates an existing schedule.
func (f *ScheduleForm) IsEdit() bool { return f.ID > 0 }

// LoadOptions fetches movies and actors concurrently.  A failed fetch
// leaves its list empty.
func (f *ScheduleForm) LoadOptions(ctx context.Context, movies Lister[model.Movie], actors Lister[model.Actor]) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		list, err := movies.List(ctx)
		if err != nil {
			logging.Error().Err(err).Msg("movie options unavailable")
			list = []model.Movie{}
		}
		f.Movies = list
	}()
	go func() {
		defer wg.Done()
		list, err := actors.List(ctx)
		if err != nil {
			logging.Error().Err(err).Msg("actor options unavailable")
			list = []model.Actor{}
		}
		f.Actors = list
	}()
	wg.Wait()
}

// NormalizeStartsAt appends seconds to a "YYYY-MM-DDTHH:mm" value.
func NormalizeStartsAt(v string) string {
	v = strings.TrimSpace(v)
	if len(v) == len("2006-01-02T15:04") {
		return v + ":00"
	}
	return v
}

type scheduleFields struct {
	StartsAt string `json:"startsAt" validate:"required"`
	MovieID  int64  `json:"movieId" validate:"required"`
	ActorID  int64  `json:"actorId" validate:"required"`
}

// Validate runs the client-side checks and returns the API body.
func (f *ScheduleForm) Validate() (model.ScheduleInput, bool) {
	fields := scheduleFields{StartsAt: NormalizeStartsAt(f.StartsAt)}
	// A blank or unparsable selection counts as missing.
	fields.MovieID, _ = strconv.ParseInt(strings.TrimSpace(f.MovieID), 10, 64)
	fields.ActorID, _ = strconv.ParseInt(strings.TrimSpace(f.ActorID), 10, 64)
	if !f.check(fields) {
		return model.ScheduleInput{}, false
	}
	startsAt, err := model.ParseDateTime(fields.StartsAt)
	if err != nil || startsAt.IsZero() {
		return model.ScheduleInput{}, f.fail("startsAt", "startsAt must be YYYY-MM-DDTHH:mm:ss")
	}
	return model.ScheduleInput{
		MovieID:  fields.MovieID,
		ActorID:  fields.ActorID,
		StartsAt: startsAt,
		Location: optionalText(f.Location),
	}, true
}

// Submit validates the form and creates or updates the schedule.
func (f *ScheduleForm) Submit(ctx context.Context, api Saver[model.ScheduleDetail, model.ScheduleInput]) error {
	in, ok := f.Validate()
	if !ok {
		return ErrInvalidForm
	}
	return save(ctx, &f.formState, api, f.ID, in)
}

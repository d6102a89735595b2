package web

import (
	"context"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/model"
)

// Messages shown to the user.  Details go to the log only.
const (
	MsgLoadingFailed = "loading failed"
	MsgSavingFailed  = "saving failed"
	MsgDeleteFailed  = "delete failed"
)

// Source is the part of an API resource a list view needs.
type Source[T any] interface {
	List(ctx context.Context) ([]T, error)
	Delete(ctx context.Context, id int64) error
}

// ListView is the state of one list page: the fetched collection, the
// filter query and the outcome of the last load or delete.
type ListView[T any] struct {
	Loading bool
	Error   string
	Items   []T
	Query   string

	src    Source[T]
	fields func(T) []string
}

// NewListView returns an empty view over src.  fields yields the
// displayable text of an item for filtering.
func NewListView[T any](src Source[T], fields func(T) []string) *ListView[T] {
	return &ListView[T]{Items: []T{}, src: src, fields: fields}
}

// Load fetches the whole collection.  On failure Error is set and the
// previous items stay in place.
func (v *ListView[T]) Load(ctx context.Context) error {
	v.Loading = true
	v.Error = ""
	defer func() { v.Loading = false }()

	items, err := v.src.List(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("list load failed")
		v.Error = MsgLoadingFailed
		return err
	}
	v.Items = items
	return nil
}

// Filtered returns the items whose displayable text contains Query,
// ignoring case.  An empty query matches everything.
func (v *ListView[T]) Filtered() []T {
	q := strings.ToLower(strings.TrimSpace(v.Query))
	if q == "" {
		return v.Items
	}
	out := make([]T, 0, len(v.Items))
	for _, it := range v.Items {
		for _, f := range v.fields(it) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Delete removes id and reloads the list.  If the delete fails, Error is
// set and Items is left untouched.
func (v *ListView[T]) Delete(ctx context.Context, id int64) error {
	v.Error = ""
	if err := v.src.Delete(ctx, id); err != nil {
		logging.Error().Err(err).Int64("id", id).Msg("delete failed")
		v.Error = MsgDeleteFailed
		return err
	}
	return v.Load(ctx)
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalDate(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// MovieFields is the filterable text of a movie.
func MovieFields(m model.Movie) []string {
	return []string{m.Title, optional(m.Description), strconv.Itoa(m.DurationMinutes), optionalDate(m.ReleaseDate)}
}

// ActorFields is the filterable text of an actor.
func ActorFields(a model.Actor) []string {
	return []string{a.FirstName, a.LastName, optionalDate(a.BirthDate)}
}

// ScheduleFields is the filterable text of a schedule row.
func ScheduleFields(s model.ScheduleDetail) []string {
	return []string{MovieLabel(s), ActorLabel(s), optional(s.Location), s.StartsAt.String()}
}

// MovieLabel is the joined movie title, or #<movieId> without a join.
func MovieLabel(s model.ScheduleDetail) string {
	if s.Movie != nil {
		return s.Movie.Title
	}
	return "#" + strconv.FormatInt(s.MovieID, 10)
}

// ActorLabel is the joined actor name, or #<actorId> without a join.
func ActorLabel(s model.ScheduleDetail) string {
	if s.Actor != nil {
		return s.Actor.FullName()
	}
	return "#" + strconv.FormatInt(s.ActorID, 10)
}

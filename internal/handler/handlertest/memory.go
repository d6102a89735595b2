// Package handlertest provides in-memory stores and a ready-made echo
// instance for exercising the catalog API without MySQL.
package handlertest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-scheduler/internal/handler"
	"github.com/iliyamo/movie-scheduler/internal/model"
	"github.com/iliyamo/movie-scheduler/internal/queue"
	"github.com/iliyamo/movie-scheduler/internal/repository"
	"github.com/iliyamo/movie-scheduler/internal/router"
)

// Catalog holds the three tables in memory.  It applies the same cascade
// and not-found rules as the MySQL repositories.
type Catalog struct {
	mu        sync.Mutex
	movies    map[int64]model.Movie
	actors    map[int64]model.Actor
	schedules map[int64]model.Schedule
	seq       struct{ movie, actor, schedule int64 }

	// Fail, when set, is returned by every store call.  Use SetFail once
	// the catalog is being served from another goroutine.
	Fail error
}

// SetFail sets Fail under the catalog lock.
func (c *Catalog) SetFail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Fail = err
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		movies:    map[int64]model.Movie{},
		actors:    map[int64]model.Actor{},
		schedules: map[int64]model.Schedule{},
	}
}

// Movies, Actors and Schedules return views of c that satisfy the
// handler store interfaces.
func (c *Catalog) Movies() *MovieStore       { return &MovieStore{c} }
func (c *Catalog) Actors() *ActorStore       { return &ActorStore{c} }
func (c *Catalog) Schedules() *ScheduleStore { return &ScheduleStore{c} }

// ScheduleCount returns the number of stored schedules.
func (c *Catalog) ScheduleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.schedules)
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Catalog) dropSchedules(match func(model.Schedule) bool) {
	for id, s := range c.schedules {
		if match(s) {
			delete(c.schedules, id)
		}
	}
}

// MovieStore is the movies table of a Catalog.
type MovieStore struct{ c *Catalog }

// Create assigns the next movie id and stores m.
func (s *MovieStore) Create(_ context.Context, m *model.Movie) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	s.c.seq.movie++
	m.ID = s.c.seq.movie
	s.c.movies[m.ID] = *m
	return nil
}

// Exists reports whether movie id is stored.
func (s *MovieStore) Exists(_ context.Context, id int64) (bool, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return false, s.c.Fail
	}
	_, ok := s.c.movies[id]
	return ok, nil
}

// ListAll returns every movie ordered by id.
func (s *MovieStore) ListAll(context.Context) ([]model.Movie, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return nil, s.c.Fail
	}
	out := make([]model.Movie, 0, len(s.c.movies))
	for _, id := range sortedKeys(s.c.movies) {
		out = append(out, s.c.movies[id])
	}
	return out, nil
}

// Update replaces movie m.ID or returns repository.ErrMovieNotFound.
func (s *MovieStore) Update(_ context.Context, m *model.Movie) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if _, ok := s.c.movies[m.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	s.c.movies[m.ID] = *m
	return nil
}

// Delete removes movie id along with its schedules.
func (s *MovieStore) Delete(_ context.Context, id int64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if _, ok := s.c.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	s.c.dropSchedules(func(sc model.Schedule) bool { return sc.MovieID == id })
	delete(s.c.movies, id)
	return nil
}

// ActorStore is the actors table of a Catalog.
type ActorStore struct{ c *Catalog }

// Create assigns the next actor id and stores a.
func (s *ActorStore) Create(_ context.Context, a *model.Actor) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	s.c.seq.actor++
	a.ID = s.c.seq.actor
	s.c.actors[a.ID] = *a
	return nil
}

// Exists reports whether actor id is stored.
func (s *ActorStore) Exists(_ context.Context, id int64) (bool, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return false, s.c.Fail
	}
	_, ok := s.c.actors[id]
	return ok, nil
}

// ListAll returns every actor ordered by id.
func (s *ActorStore) ListAll(context.Context) ([]model.Actor, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return nil, s.c.Fail
	}
	out := make([]model.Actor, 0, len(s.c.actors))
	for _, id := range sortedKeys(s.c.actors) {
		out = append(out, s.c.actors[id])
	}
	return out, nil
}

// Update replaces actor a.ID or returns repository.ErrActorNotFound.
func (s *ActorStore) Update(_ context.Context, a *model.Actor) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if _, ok := s.c.actors[a.ID]; !ok {
		return repository.ErrActorNotFound
	}
	s.c.actors[a.ID] = *a
	return nil
}

// Delete removes actor id along with its schedules.
func (s *ActorStore) Delete(_ context.Context, id int64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if _, ok := s.c.actors[id]; !ok {
		return repository.ErrActorNotFound
	}
	s.c.dropSchedules(func(sc model.Schedule) bool { return sc.ActorID == id })
	delete(s.c.actors, id)
	return nil
}

// ScheduleStore is the screening_schedules table of a Catalog.  Writes
// referencing a missing movie or actor fail with
// repository.ErrDanglingReference.
type ScheduleStore struct{ c *Catalog }

func (s *ScheduleStore) checkRefs(sc *model.Schedule) error {
	_, movieOK := s.c.movies[sc.MovieID]
	_, actorOK := s.c.actors[sc.ActorID]
	if !movieOK || !actorOK {
		return repository.ErrDanglingReference
	}
	return nil
}

// Create assigns the next schedule id and stores sc.
func (s *ScheduleStore) Create(_ context.Context, sc *model.Schedule) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if err := s.checkRefs(sc); err != nil {
		return err
	}
	s.c.seq.schedule++
	sc.ID = s.c.seq.schedule
	s.c.schedules[sc.ID] = *sc
	return nil
}

// Exists reports whether schedule id is stored.
func (s *ScheduleStore) Exists(_ context.Context, id int64) (bool, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return false, s.c.Fail
	}
	_, ok := s.c.schedules[id]
	return ok, nil
}

// ListAll returns every schedule ordered by id, joined with its movie
// and actor.
func (s *ScheduleStore) ListAll(context.Context) ([]model.ScheduleDetail, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return nil, s.c.Fail
	}
	out := make([]model.ScheduleDetail, 0, len(s.c.schedules))
	for _, id := range sortedKeys(s.c.schedules) {
		d := model.ScheduleDetail{Schedule: s.c.schedules[id]}
		if m, ok := s.c.movies[d.MovieID]; ok {
			d.Movie = &m
			d.MovieTitle = m.Title
		}
		if a, ok := s.c.actors[d.ActorID]; ok {
			d.Actor = &a
			d.ActorName = a.FullName()
		}
		out = append(out, d)
	}
	return out, nil
}

// Update replaces schedule sc.ID or returns repository.ErrScheduleNotFound.
func (s *ScheduleStore) Update(_ context.Context, sc *model.Schedule) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if _, ok := s.c.schedules[sc.ID]; !ok {
		return repository.ErrScheduleNotFound
	}
	if err := s.checkRefs(sc); err != nil {
		return err
	}
	s.c.schedules[sc.ID] = *sc
	return nil
}

// Delete removes schedule id.
func (s *ScheduleStore) Delete(_ context.Context, id int64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.Fail != nil {
		return s.c.Fail
	}
	if _, ok := s.c.schedules[id]; !ok {
		return repository.ErrScheduleNotFound
	}
	delete(s.c.schedules, id)
	return nil
}

// Events collects published catalog events.
type Events struct {
	C chan queue.CatalogEvent
}

// NewEvents returns a recorder with room for n events.
func NewEvents(n int) *Events { return &Events{C: make(chan queue.CatalogEvent, n)} }

// ErrEventsFull is returned when the recorder's buffer is full.
var ErrEventsFull = errors.New("event buffer full")

// Publish records ev, or returns ErrEventsFull without blocking.
func (e *Events) Publish(_ context.Context, ev queue.CatalogEvent) error {
	select {
	case e.C <- ev:
		return nil
	default:
		return ErrEventsFull
	}
}

// NewEcho returns an echo instance with the catalog API mounted over c.
// events may be nil.
func NewEcho(c *Catalog, events handler.EventPublisher) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = handler.JSONSerializer{}
	h := handler.NewCatalogHandler(c.Movies(), c.Actors(), c.Schedules(), events)
	router.RegisterAPI(e, h)
	return e
}

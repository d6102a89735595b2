// Package web is the browser UI.  It renders list and form pages on the
// server and talks to the catalog exclusively through the API client.  Every
// request builds a fresh view (list or form) and discards it after
// rendering.
package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-scheduler/internal/client"
	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/model"
)

// Pages serves the UI.
type Pages struct {
	api       *client.Client
	movies    *listPage[model.Movie]
	actors    *listPage[model.Actor]
	schedules *listPage[model.ScheduleDetail]
}

// NewPages builds the UI over api.
func NewPages(api *client.Client) *Pages {
	return &Pages{
		api: api,
		movies: &listPage[model.Movie]{
			title:   "Movies",
			base:    "/movies",
			columns: []string{"Title", "Description", "Duration", "Release date"},
			source:  api.Movies(),
			fields:  MovieFields,
			id:      func(m model.Movie) int64 { return m.ID },
			label:   func(m model.Movie) string { return m.Title },
			cells: func(m model.Movie) []string {
				return []string{m.Title, dash(optional(m.Description)), strconv.Itoa(m.DurationMinutes) + " min", dash(optionalDate(m.ReleaseDate))}
			},
		},
		actors: &listPage[model.Actor]{
			title:   "Actors",
			base:    "/actors",
			columns: []string{"First name", "Last name", "Birth date"},
			source:  api.Actors(),
			fields:  ActorFields,
			id:      func(a model.Actor) int64 { return a.ID },
			label:   func(a model.Actor) string { return a.FullName() },
			cells: func(a model.Actor) []string {
				return []string{a.FirstName, a.LastName, dash(optionalDate(a.BirthDate))}
			},
		},
		schedules: &listPage[model.ScheduleDetail]{
			title:   "Schedules",
			base:    "/schedules",
			columns: []string{"Movie", "Actor", "Starts at", "Location"},
			source:  api.Schedules(),
			fields:  ScheduleFields,
			id:      func(s model.ScheduleDetail) int64 { return s.ID },
			label: func(s model.ScheduleDetail) string {
				return MovieLabel(s) + " / " + ActorLabel(s) + " @ " + s.StartsAt.String()
			},
			cells: func(s model.ScheduleDetail) []string {
				return []string{MovieLabel(s), ActorLabel(s), s.StartsAt.String(), dash(optional(s.Location))}
			},
		},
	}
}

// Register mounts every page on e.
func (p *Pages) Register(e *echo.Echo) {
	e.GET("/", p.home)

	p.movies.register(e)
	e.GET("/movies/new", p.editMovie)
	e.POST("/movies/new", p.saveMovie)
	e.GET("/movies/:id", p.editMovie)
	e.POST("/movies/:id", p.saveMovie)

	p.actors.register(e)
	e.GET("/actors/new", p.editActor)
	e.POST("/actors/new", p.saveActor)
	e.GET("/actors/:id", p.editActor)
	e.POST("/actors/:id", p.saveActor)

	p.schedules.register(e)
	e.GET("/schedules/new", p.editSchedule)
	e.POST("/schedules/new", p.saveSchedule)
	e.GET("/schedules/:id", p.editSchedule)
	e.POST("/schedules/:id", p.saveSchedule)
}

// apiContext detaches API calls from the browser request: leaving a page
// does not abort a call already sent.
func apiContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (p *Pages) home(c echo.Context) error {
	return c.Render(http.StatusOK, "home.html", map[string]string{"API": p.api.BaseURL()})
}

type errorPage struct{ Message string }

func notFoundPage(c echo.Context) error {
	return c.Render(http.StatusNotFound, "error.html", errorPage{Message: "page not found"})
}

// formID returns 0 on the /new routes and the path id otherwise.
func formID(c echo.Context) (int64, bool) {
	raw := c.Param("id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handoff decodes the state query parameter into v.  It reports false
// when there is none or it does not decode.
func handoff(c echo.Context, v any) bool {
	state := c.QueryParam("state")
	if state == "" {
		return false
	}
	if err := DecodeState(state, v); err != nil {
		logging.Warn().Err(err).Str("path", c.Path()).Msg("ignoring hand-off state")
		return false
	}
	return true
}

type formPage struct {
	Title  string
	Action string
	Back   string
	Form   any
}

func formAction(base string, id int64) string {
	if id > 0 {
		return base + "/" + strconv.FormatInt(id, 10)
	}
	return base + "/new"
}

func formTitle(noun string, edit bool) string {
	if edit {
		return "Edit " + noun
	}
	return "New " + noun
}

// formStatus is 422 for client-side check failures and 200 when the API
// call failed.
func formStatus(err error) int {
	if err == ErrInvalidForm {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func (p *Pages) editMovie(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		return notFoundPage(c)
	}
	f := &MovieForm{ID: id}
	var m model.Movie
	if id > 0 && handoff(c, &m) && m.ID == id {
		f = MovieFormFrom(m)
	}
	return c.Render(http.StatusOK, "movie_form.html", formPage{Title: formTitle("movie", f.IsEdit()), Action: formAction("/movies", id), Back: "/movies", Form: f})
}

func (p *Pages) saveMovie(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		return notFoundPage(c)
	}
	f := &MovieForm{
		ID:              id,
		Title:           c.FormValue("title"),
		Description:     c.FormValue("description"),
		DurationMinutes: c.FormValue("durationMinutes"),
		ReleaseDate:     c.FormValue("releaseDate"),
	}
	if err := f.Submit(apiContext(c), p.api.Movies()); err != nil {
		return c.Render(formStatus(err), "movie_form.html", formPage{Title: formTitle("movie", f.IsEdit()), Action: formAction("/movies", id), Back: "/movies", Form: f})
	}
	return c.Redirect(http.StatusSeeOther, "/movies")
}

func (p *Pages) editActor(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		return notFoundPage(c)
	}
	f := &ActorForm{ID: id}
	var a model.Actor
	if id > 0 && handoff(c, &a) && a.ID == id {
		f = ActorFormFrom(a)
	}
	return c.Render(http.StatusOK, "actor_form.html", formPage{Title: formTitle("actor", f.IsEdit()), Action: formAction("/actors", id), Back: "/actors", Form: f})
}

func (p *Pages) saveActor(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		return notFoundPage(c)
	}
	f := &ActorForm{
		ID:        id,
		FirstName: c.FormValue("firstName"),
		LastName:  c.FormValue("lastName"),
		BirthDate: c.FormValue("birthDate"),
	}
	if err := f.Submit(apiContext(c), p.api.Actors()); err != nil {
		return c.Render(formStatus(err), "actor_form.html", formPage{Title: formTitle("actor", f.IsEdit()), Action: formAction("/actors", id), Back: "/actors", Form: f})
	}
	return c.Redirect(http.StatusSeeOther, "/actors")
}

func (p *Pages) editSchedule(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		return notFoundPage(c)
	}
	f := &ScheduleForm{ID: id}
	var s model.ScheduleDetail
	if id > 0 && handoff(c, &s) && s.ID == id {
		f = ScheduleFormFrom(s)
	}
	// The selects are always filled from the API, never from the hand-off.
	f.LoadOptions(apiContext(c), p.api.Movies(), p.api.Actors())
	return c.Render(http.StatusOK, "schedule_form.html", formPage{Title: formTitle("schedule", f.IsEdit()), Action: formAction("/schedules", id), Back: "/schedules", Form: f})
}

func (p *Pages) saveSchedule(c echo.Context) error {
	id, ok := formID(c)
	if !ok {
		return notFoundPage(c)
	}
	f := &ScheduleForm{
		ID:       id,
		MovieID:  c.FormValue("movieId"),
		ActorID:  c.FormValue("actorId"),
		StartsAt: c.FormValue("startsAt"),
		Location: c.FormValue("location"),
	}
	ctx := apiContext(c)
	if err := f.Submit(ctx, p.api.Schedules()); err != nil {
		f.LoadOptions(ctx, p.api.Movies(), p.api.Actors())
		return c.Render(formStatus(err), "schedule_form.html", formPage{Title: formTitle("schedule", f.IsEdit()), Action: formAction("/schedules", id), Back: "/schedules", Form: f})
	}
	return c.Redirect(http.StatusSeeOther, "/schedules")
}

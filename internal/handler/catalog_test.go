package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-scheduler/internal/handler"
	"github.com/iliyamo/movie-scheduler/internal/handler/handlertest"
	"github.com/iliyamo/movie-scheduler/internal/queue"
)

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func newAPI() (*echo.Echo, *handlertest.Catalog) {
	cat := handlertest.NewCatalog()
	return handlertest.NewEcho(cat, nil), cat
}

func TestNewCatalogHandlerPanicsOnNilStore(t *testing.T) {
	cat := handlertest.NewCatalog()
	assert.Panics(t, func() { handler.NewCatalogHandler(nil, cat.Actors(), cat.Schedules(), nil) })
}

func TestCreateMovieRejectsWhitespaceTitle(t *testing.T) {
	e, _ := newAPI()

	for _, title := range []string{`""`, `"   "`, `"\t\n"`} {
		rec := do(e, http.MethodPost, "/api/v1/movies", `{"title":`+title+`,"durationMinutes":90}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, title)
		body := decode[map[string]string](t, rec)
		assert.Equal(t, "title", body["field"])
	}

	list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/movies", ""))
	assert.Empty(t, list)
}

func TestCreateMovieRejectsNegativeDuration(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "durationMinutes must be >= 0", errorOf(t, rec))
}

func TestCreateMovieChecksTitleBeforeDuration(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/movies", `{"title":" ","durationMinutes":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title must not be empty", errorOf(t, rec))

	rec = do(e, http.MethodPost, "/api/v1/movies", `{"description":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title is required", errorOf(t, rec))
}

func TestMovieRoundTrip(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/movies", `{"title":"  Inception ","durationMinutes":148,"releaseDate":"2010-07-16"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	createdMovie := decode[map[string]any](t, rec)
	id := createdMovie["id"].(float64)
	assert.Equal(t, "/api/v1/movies/1", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, "Inception", createdMovie["title"])

	for i := 0; i < 2; i++ {
		list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/movies", ""))
		require.Len(t, list, 1)
		assert.Equal(t, map[string]any{
			"id":              id,
			"title":           "Inception",
			"description":     nil,
			"durationMinutes": float64(148),
			"releaseDate":     "2010-07-16",
		}, list[0])
	}
}

func TestMovieDescriptionStoredAsSent(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","description":"  two spaces  ","durationMinutes":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "  two spaces  ", decode[map[string]any](t, rec)["description"])

	rec = do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","description":null,"durationMinutes":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decode[map[string]any](t, rec)["description"])
}

func TestMovieRejectsValuesTheColumnsCannotHold(t *testing.T) {
	e, _ := newAPI()

	rec := do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":3000000000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "durationMinutes must be <= 2147483647", errorOf(t, rec))

	rec = do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":2147483647}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	long := strings.Repeat("a", 65536)
	rec = do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":170,"description":"`+long+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "description", decode[map[string]string](t, rec)["field"])

	rec = do(e, http.MethodPost, "/api/v1/movies", `{"title":"`+strings.Repeat("t", 256)+`","durationMinutes":170}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title must be at most 255 characters", errorOf(t, rec))

	list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/movies", ""))
	assert.Len(t, list, 1)
}

func TestMovieRejectsMalformedBodies(t *testing.T) {
	e, _ := newAPI()
	for _, body := range []string{
		`{"title":"Heat","durationMinutes":170,"rating":5}`,
		`{"title":"Heat","durationMinutes":"long"}`,
		`{"title":"Heat","durationMinutes":170,"releaseDate":"16/07/2010"}`,
		`{"title":"Heat","durationMinutes":170} {}`,
		`not json`,
	} {
		rec := do(e, http.MethodPost, "/api/v1/movies", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "invalid request body", errorOf(t, rec), body)
	}
}

func TestUpdateMovie(t *testing.T) {
	e, _ := newAPI()
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":170}`).Code)

	rec := do(e, http.MethodPut, "/api/v1/movies/1", `{"title":"Heat (1995)","durationMinutes":171,"description":"LA crime"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Heat (1995)", body["title"])

	rec = do(e, http.MethodPut, "/api/v1/movies/42", `{"title":"Heat","durationMinutes":170}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "movie not found", errorOf(t, rec))

	rec = do(e, http.MethodPut, "/api/v1/movies/42", `{"title":"","durationMinutes":170}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, "/api/v1/movies/abc", `{"title":"Heat","durationMinutes":170}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", errorOf(t, rec))
}

func TestDeleteMovieNotFound(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodDelete, "/api/v1/movies/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActorRenameKeepsID(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/actors", `{"firstName":"Leo","lastName":"DiCaprio","birthDate":"1974-11-11"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["id"]

	rec = do(e, http.MethodPut, "/api/v1/actors/1", `{"firstName":"Leonardo","lastName":"DiCaprio","birthDate":"1974-11-11"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/actors", ""))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])
	assert.Equal(t, "Leonardo", list[0]["firstName"])
	assert.Equal(t, "1974-11-11", list[0]["birthDate"])
}

func TestActorNameValidation(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/actors", `{"firstName":" ","lastName":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "firstName", decode[map[string]string](t, rec)["field"])

	rec = do(e, http.MethodPost, "/api/v1/actors", `{"firstName":"Tom"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "lastName is required", errorOf(t, rec))
}

func TestActorEndToEnd(t *testing.T) {
	e, _ := newAPI()
	rec := do(e, http.MethodPost, "/api/v1/actors", `{"firstName":"Tom","lastName":"Hanks","birthDate":null}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec)["id"].(float64)
	location := rec.Header().Get(echo.HeaderLocation)
	assert.True(t, strings.HasPrefix(location, "/api/v1/actors/"))

	list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/actors", ""))
	assert.Contains(t, list, map[string]any{"id": id, "firstName": "Tom", "lastName": "Hanks", "birthDate": nil})

	rec = do(e, http.MethodDelete, location, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	list = decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/actors", ""))
	assert.Empty(t, list)
}

func seedMovieAndActor(t *testing.T, e *echo.Echo) {
	t.Helper()
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/movies", `{"title":"Inception","durationMinutes":148}`).Code)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/actors", `{"firstName":"Leonardo","lastName":"DiCaprio"}`).Code)
}

func TestCreateScheduleReferenceChecks(t *testing.T) {
	e, cat := newAPI()
	seedMovieAndActor(t, e)

	rec := do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":99,"actorId":1,"startsAt":"2026-01-16T19:30:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "movieId 99 does not exist", errorOf(t, rec))

	rec = do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":1,"actorId":99,"startsAt":"2026-01-16T19:30:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "actorId 99 does not exist", errorOf(t, rec))

	// Both missing: the movie is reported.
	rec = do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":98,"actorId":99,"startsAt":"2026-01-16T19:30:00"}`)
	assert.Equal(t, "movieId 98 does not exist", errorOf(t, rec))

	assert.Zero(t, cat.ScheduleCount())
}

func TestCreateScheduleStartsAt(t *testing.T) {
	e, _ := newAPI()
	seedMovieAndActor(t, e)

	for _, body := range []string{
		`{"movieId":99,"actorId":99}`,
		`{"movieId":1,"actorId":1,"startsAt":null}`,
		`{"movieId":1,"actorId":1,"startsAt":"0001-01-01T00:00:00"}`,
	} {
		rec := do(e, http.MethodPost, "/api/v1/schedules", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "startsAt is required", errorOf(t, rec), body)
	}

	rec := do(e, http.MethodPost, "/api/v1/schedules", `{"startsAt":"2026-01-16T19:30:00","actorId":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "movieId is required", errorOf(t, rec))
}

func TestScheduleListDenormalized(t *testing.T) {
	e, _ := newAPI()
	seedMovieAndActor(t, e)

	rec := do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":1,"actorId":1,"startsAt":"2026-01-16T19:30","location":" Kino 1 "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "seconds are required on the wire")

	rec = do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":1,"actorId":1,"startsAt":"2026-01-16T19:30:00","location":" Kino 1 "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/schedules/1", rec.Header().Get(echo.HeaderLocation))
	createdSchedule := decode[map[string]any](t, rec)
	assert.Equal(t, " Kino 1 ", createdSchedule["location"])
	assert.NotContains(t, createdSchedule, "movieTitle")

	list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/schedules", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "Inception", list[0]["movieTitle"])
	assert.Equal(t, "Leonardo DiCaprio", list[0]["actorName"])
	assert.Equal(t, "2026-01-16T19:30:00", list[0]["startsAt"])
	require.IsType(t, map[string]any{}, list[0]["movie"])
	assert.Equal(t, "Inception", list[0]["movie"].(map[string]any)["title"])
}

func TestUpdateScheduleOrdering(t *testing.T) {
	e, _ := newAPI()
	seedMovieAndActor(t, e)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":1,"actorId":1,"startsAt":"2026-01-16T19:30:00"}`).Code)

	// Field checks come before the existence check.
	rec := do(e, http.MethodPut, "/api/v1/schedules/9", `{"movieId":1,"actorId":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown schedule wins over unknown references.
	rec = do(e, http.MethodPut, "/api/v1/schedules/9", `{"movieId":5,"actorId":5,"startsAt":"2026-01-16T19:30:00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPut, "/api/v1/schedules/1", `{"movieId":1,"actorId":5,"startsAt":"2026-01-16T19:30:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "actorId 5 does not exist", errorOf(t, rec))

	rec = do(e, http.MethodPut, "/api/v1/schedules/1", `{"movieId":1,"actorId":1,"startsAt":"2026-02-01T18:00:00","location":"Open air"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-02-01T18:00:00", decode[map[string]any](t, rec)["startsAt"])
}

func TestDeleteMovieCascadesToSchedules(t *testing.T) {
	e, cat := newAPI()
	seedMovieAndActor(t, e)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":170}`).Code)
	for _, movieID := range []string{"1", "1", "2"} {
		rec := do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":`+movieID+`,"actorId":1,"startsAt":"2026-01-16T19:30:00"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	require.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/api/v1/movies/1", "").Code)

	list := decode[[]map[string]any](t, do(e, http.MethodGet, "/api/v1/schedules", ""))
	require.Len(t, list, 1)
	assert.Equal(t, float64(2), list[0]["movieId"])

	require.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/api/v1/actors/1", "").Code)
	assert.Zero(t, cat.ScheduleCount())
}

func TestDeleteSchedule(t *testing.T) {
	e, _ := newAPI()
	seedMovieAndActor(t, e)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":1,"actorId":1,"startsAt":"2026-01-16T19:30:00"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/api/v1/schedules/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/api/v1/schedules/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/api/v1/schedules/0", "").Code)
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	e, cat := newAPI()
	cat.Fail = errors.New("connection refused")

	rec := do(e, http.MethodGet, "/api/v1/movies", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "list movies failed", errorOf(t, rec))

	rec = do(e, http.MethodPost, "/api/v1/schedules", `{"movieId":1,"actorId":1,"startsAt":"2026-01-16T19:30:00"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWritesPublishEvents(t *testing.T) {
	cat := handlertest.NewCatalog()
	events := handlertest.NewEvents(8)
	e := handlertest.NewEcho(cat, events)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/movies", `{"title":"Heat","durationMinutes":170}`).Code)
	require.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/api/v1/movies/1", "").Code)
	// Rejected writes publish nothing.
	require.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/api/v1/movies/1", "").Code)

	got := make([]queue.CatalogEvent, 0, 2)
	for len(got) < 2 {
		select {
		case ev := <-events.C:
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 events, got %d", len(got))
		}
	}
	actions := []string{got[0].Action, got[1].Action}
	assert.ElementsMatch(t, []string{queue.ActionCreated, queue.ActionDeleted}, actions)
	for _, ev := range got {
		assert.Equal(t, queue.EntityMovie, ev.Entity)
		assert.Equal(t, int64(1), ev.ID)
	}
	select {
	case ev := <-events.C:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

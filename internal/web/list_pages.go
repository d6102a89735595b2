package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-scheduler/internal/logging"
)

// listPage renders one entity's list, its delete confirmation and the
// delete itself.
type listPage[T any] struct {
	title   string
	base    string
	columns []string
	source  Source[T]
	fields  func(T) []string
	id      func(T) int64
	label   func(T) string
	cells   func(T) []string
}

func (p *listPage[T]) register(e *echo.Echo) {
	e.GET(p.base, p.list)
	e.POST(p.base+"/:id/confirm", p.confirm)
	e.POST(p.base+"/:id/delete", p.remove)
}

type listRow struct {
	ID      int64
	Cells   []string
	EditURL string
}

type listData struct {
	Title   string
	Base    string
	Query   string
	Error   string
	Loading bool
	Columns []string
	Rows    []listRow
	Total   int
	// State is the displayed collection, handed to the delete confirmation.
	State string
}

func (p *listPage[T]) data(v *ListView[T]) listData {
	d := listData{
		Title:   p.title,
		Base:    p.base,
		Query:   v.Query,
		Error:   v.Error,
		Loading: v.Loading,
		Columns: p.columns,
		Total:   len(v.Items),
	}
	for _, it := range v.Filtered() {
		id := p.id(it)
		row := listRow{ID: id, Cells: p.cells(it), EditURL: p.base + "/" + strconv.FormatInt(id, 10)}
		if state, err := EncodeState(it); err == nil {
			row.EditURL += "?state=" + state
		}
		d.Rows = append(d.Rows, row)
	}
	if state, err := EncodeState(v.Items); err == nil {
		d.State = state
	}
	return d
}

func (p *listPage[T]) list(c echo.Context) error {
	v := NewListView(p.source, p.fields)
	v.Query = c.QueryParam("q")
	_ = v.Load(apiContext(c))
	return c.Render(http.StatusOK, "list.html", p.data(v))
}

// itemsFromForm restores the collection the list page displayed.
func (p *listPage[T]) itemsFromForm(c echo.Context) []T {
	items := []T{}
	if state := c.FormValue("state"); state != "" {
		if err := DecodeState(state, &items); err != nil {
			logging.Warn().Err(err).Str("page", p.base).Msg("ignoring list state")
			return []T{}
		}
	}
	return items
}

type confirmData struct {
	Title string
	Base  string
	ID    int64
	Label string
	Query string
	State string
	Back  string
}

func (p *listPage[T]) confirm(c echo.Context) error {
	id, ok := formID(c)
	if !ok || id == 0 {
		return notFoundPage(c)
	}
	label := "#" + strconv.FormatInt(id, 10)
	for _, it := range p.itemsFromForm(c) {
		if p.id(it) == id {
			label = p.label(it)
			break
		}
	}
	q := c.FormValue("q")
	back := p.base
	if q != "" {
		back += "?q=" + url.QueryEscape(q)
	}
	return c.Render(http.StatusOK, "confirm.html", confirmData{
		Title: p.title,
		Base:  p.base,
		ID:    id,
		Label: label,
		Query: q,
		State: c.FormValue("state"),
		Back:  back,
	})
}

func (p *listPage[T]) remove(c echo.Context) error {
	id, ok := formID(c)
	if !ok || id == 0 {
		return notFoundPage(c)
	}
	v := NewListView(p.source, p.fields)
	v.Query = c.FormValue("q")
	v.Items = p.itemsFromForm(c)
	_ = v.Delete(apiContext(c), id)
	return c.Render(http.StatusOK, "list.html", p.data(v))
}

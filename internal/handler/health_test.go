package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthAndReady(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health)
	e.GET("/readyz", Ready(pingerFunc(func(context.Context) error { return nil })))
	e.GET("/down", Ready(pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })))

	for path, want := range map[string]int{"/healthz": http.StatusOK, "/readyz": http.StatusOK, "/down": http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestDecodeBodyRejectsTrailingData(t *testing.T) {
	e := echo.New()
	var dst struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a"}`+"\n"))
	assert.NoError(t, decodeBody(e.NewContext(req, httptest.NewRecorder()), &dst))
	assert.Equal(t, "a", dst.Title)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a"}{"title":"b"}`))
	assert.Error(t, decodeBody(e.NewContext(req, httptest.NewRecorder()), &dst))
}

func TestBindUsesStrictSerializer(t *testing.T) {
	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	var dst struct {
		Title string `json:"title"`
	}

	for _, body := range []string{`{"title":"a","extra":1}`, `{"title":"a"} []`, `{"title":`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		err := e.NewContext(req, httptest.NewRecorder()).Bind(&dst)
		var he *echo.HTTPError
		if assert.True(t, errors.As(err, &he), body) {
			assert.Equal(t, http.StatusBadRequest, he.Code, body)
		}
	}
}

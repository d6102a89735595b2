package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-scheduler/internal/config"
	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/metrics"
)

func contextFor(e *echo.Echo, method, target, route string) echo.Context {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	return c
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	a := contextFor(e, http.MethodGet, "/api/v1/movies?q=1", "/api/v1/movies")
	b := contextFor(e, http.MethodGet, "/api/v1/movies?q=2", "/api/v1/movies")

	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	ka, kb := cacheKeyFrom(cfg, 0, a), cacheKeyFrom(cfg, 0, b)
	assert.NotEqual(t, ka, kb)
	assert.True(t, strings.HasPrefix(ka, "cache:"))

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKeyFrom(cfg, 0, a), cacheKeyFrom(cfg, 0, b))
}

func TestCacheKeyChangesWithGeneration(t *testing.T) {
	e := echo.New()
	c := contextFor(e, http.MethodGet, "/api/v1/schedules", "/api/v1/schedules")
	cfg := config.CacheConfig{Prefix: "cache"}

	before, after := cacheKeyFrom(cfg, 4, c), cacheKeyFrom(cfg, 5, c)
	assert.NotEqual(t, before, after, "an entry stored under a retired generation is never read again")
	assert.Equal(t, before, cacheKeyFrom(cfg, 4, c))

	// Purges match prefix:* and must not reset the counter.
	assert.True(t, strings.HasPrefix(after, "cache:"))
	assert.False(t, strings.HasPrefix(generationKey(cfg.Prefix), "cache:"))
}

func TestCacheBypassedWhenRedisUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()

	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, Prefix: "cache", Methods: map[string]bool{http.MethodGet: true}}, rdb))
	e.GET("/api/v1/movies", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movies", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Equal(t, "BYPASS", rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[{"id":1}]`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `[{"id":1}]`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestWriteMethod(t *testing.T) {
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.True(t, writeMethod(m), m)
	}
	assert.False(t, writeMethod(http.MethodGet))
}

func TestCaptureWriterHonoursLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(7), cw.size)
	assert.Equal(t, "abcdefg", rec.Body.String())
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: false}, nil))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "x") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	c := contextFor(e, http.MethodPost, "/api/v1/movies", "/api/v1/movies")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}
	assert.Equal(t, "rl:ip:10.0.0.7", buildRateKey(cfg, c))
	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:POST /api/v1/movies", buildRateKey(cfg, c))
	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:10.0.0.7:route:POST /api/v1/movies", buildRateKey(cfg, c))
}

func TestRetryAfterAndInt64(t *testing.T) {
	assert.Equal(t, 2, retryAfterSeconds(1001))
	assert.Equal(t, 0, retryAfterSeconds(-5))
	assert.Equal(t, int64(3), asInt64("3"))
	assert.Equal(t, int64(4), asInt64(float64(4)))
	assert.Equal(t, int64(0), asInt64(struct{}{}))
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	e := echo.New()
	e.Use(RequestID(), RequestLogger())
	e.GET("/api/v1/movies/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movies/3", nil))
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"route":"/api/v1/movies/:id"`)
	assert.Contains(t, out, id)
}

func TestPrometheusLabelsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Prometheus())
	e.GET("/api/v1/things/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/things/:id", "204")
	before := testutil.ToFloat64(counter)
	for _, id := range []string{"1", "2"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/things/"+id, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

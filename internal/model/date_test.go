package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var m Movie
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"Inception","description":null,"durationMinutes":148,"releaseDate":"2010-07-16"}`), &m))
	require.NotNil(t, m.ReleaseDate)
	assert.Equal(t, NewDate(2010, time.July, 16), *m.ReleaseDate)
	assert.Nil(t, m.Description)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Inception","description":null,"durationMinutes":148,"releaseDate":"2010-07-16"}`, string(out))
}

func TestDateRejectsTimeComponent(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"2010-07-16T10:00:00"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20100716`), &d))
}

func TestNullDateDecodesToNil(t *testing.T) {
	var a Actor
	require.NoError(t, json.Unmarshal([]byte(`{"firstName":"Tom","lastName":"Hanks","birthDate":null}`), &a))
	assert.Nil(t, a.BirthDate)
	assert.Equal(t, "Tom Hanks", a.FullName())
}

func TestDateTimeFormat(t *testing.T) {
	dt, err := ParseDateTime("2026-01-16T19:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-16T19:30:00", dt.String())
	assert.False(t, dt.IsZero())

	frac, err := ParseDateTime("2026-01-16T19:30:00.750")
	require.NoError(t, err)
	assert.Equal(t, dt, frac)

	_, err = ParseDateTime("2026-01-16T19:30:00+02:00")
	assert.Error(t, err)
	_, err = ParseDateTime("2026-01-16")
	assert.Error(t, err)
}

func TestDateTimeZeroSentinel(t *testing.T) {
	dt, err := ParseDateTime("0001-01-01T00:00:00")
	require.NoError(t, err)
	assert.True(t, dt.IsZero())
}

func TestDateTimeOfDropsLocation(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	dt := DateTimeOf(time.Date(2026, 3, 1, 20, 15, 5, 999, loc))
	assert.Equal(t, "2026-03-01T20:15:05", dt.String())
	assert.Equal(t, time.UTC, dt.Time().Location())
}

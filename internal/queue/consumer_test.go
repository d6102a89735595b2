package queue

import (
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWriterAppendsLines(t *testing.T) {
	w := NewLogWriter(t.TempDir())

	for _, ev := range []CatalogEvent{
		{Entity: EntityMovie, Action: ActionCreated, ID: 1, OccurredAt: "2026-01-16T19:30:00Z"},
		{Entity: EntityActor, Action: ActionDeleted, ID: 2, OccurredAt: "2026-01-16T19:31:00Z"},
	} {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, w.Handle(body))
	}

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2026-01-16T19:30:00Z] movie created | id=1", lines[0])
	assert.Equal(t, "[2026-01-16T19:31:00Z] actor deleted | id=2", lines[1])
}

func TestLogWriterRejectsBadMessages(t *testing.T) {
	w := NewLogWriter(t.TempDir())

	assert.Error(t, w.Handle([]byte("not json")))
	assert.Error(t, w.Handle([]byte(`{"id":3}`)))
	_, err := os.Stat(w.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestNewCatalogEventWireFormat(t *testing.T) {
	ev := NewCatalogEvent(EntitySchedule, ActionUpdated, 9)
	assert.NotEmpty(t, ev.OccurredAt)

	body, err := json.Marshal(ev)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "schedule", m["entity"])
	assert.Equal(t, "updated", m["action"])
	assert.EqualValues(t, 9, m["id"])
	assert.Contains(t, m, "occurredAt")
}

func TestNewLogWriterDefaultsDir(t *testing.T) {
	assert.Equal(t, "logs/catalog.log", NewLogWriter("").Path())
}

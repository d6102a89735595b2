// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import "time"

// CatalogQueueName is the durable queue carrying catalog change events.
const CatalogQueueName = "catalog.events"

// Entities and actions carried by CatalogEvent.
const (
	EntityMovie    = "movie"
	EntityActor    = "actor"
	EntitySchedule = "schedule"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogEvent is published after a movie, actor or schedule was created,
// updated or deleted.  It holds only the identity of the row; consumers that
// need the data read it from the API.
type CatalogEvent struct {
	Entity     string `json:"entity"`
	Action     string `json:"action"`
	ID         int64  `json:"id"`
	OccurredAt string `json:"occurredAt"`
}

// NewCatalogEvent stamps an event with the current UTC time.
func NewCatalogEvent(entity, action string, id int64) CatalogEvent {
	return CatalogEvent{
		Entity:     entity,
		Action:     action,
		ID:         id,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

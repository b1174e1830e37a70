package models

import (
	"time"

	id "clanhub/pkg/domain"
)

// EventType names a clan lifecycle event.
type EventType string

const (
	EventClanCreated EventType = "clan.created"
	EventClanDeleted EventType = "clan.deleted"
)

// LifecycleEvent is published after a successful create or delete.
type LifecycleEvent struct {
	Type       EventType `json:"type"`
	ClanID     id.ClanID `json:"clan_id"`
	Name       string    `json:"name,omitempty"`
	Region     *string   `json:"region,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

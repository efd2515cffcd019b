package domain

import (
	"encoding/json"
	"time"
)

// EntityKind keys the local cache and the outbox.
type EntityKind string

const (
	EntityKindEvent       EntityKind = "event"
	EntityKindApplication EntityKind = "application"
)

type OutboxOp string

const (
	OutboxOpUpsertEvent          OutboxOp = "upsert_event"
	OutboxOpCreateApplication    OutboxOp = "create_application"
	OutboxOpSetApplicationStatus OutboxOp = "set_application_status"
)

// OutboxEntry is a uniquely identified write intent waiting to be replayed
// against the backend.
type OutboxEntry struct {
	ID            string          `json:"id"`
	Kind          EntityKind      `json:"kind"`
	EntityID      string          `json:"entity_id"`
	Op            OutboxOp        `json:"op"`
	Payload       json.RawMessage `json:"payload"`
	SchemaVersion int             `json:"schema_version"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedOn     time.Time       `json:"created_on"`
}

// StatusIntent is the payload of a set_application_status intent. Reason is
// only set for cancellations.
type StatusIntent struct {
	ApplicationID string            `json:"application_id"`
	ActorID       string            `json:"actor_id"`
	Status        ApplicationStatus `json:"status"`
	Reason        string            `json:"reason,omitempty"`
}

// SyncStatus summarizes the degraded-mode state for clients.
type SyncStatus struct {
	Pending int  `json:"pending"`
	Offline bool `json:"offline"`
}

// Package audit defines the audit trail contract for pipeline writes.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"gasworld/internal/core/id"
)

// Action names recorded by the pipeline.
const (
	ActionReadingOpened  = "reading.opened"
	ActionReadingClosed  = "reading.closed"
	ActionSalesUpdated   = "sales.updated"
	ActionSalesClosed    = "sales.closed"
	ActionVolumeAdjusted = "pit.volume_adjusted"
)

// Entry is one audit record.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	ActorID    *id.ID          `db:"actor_id" json:"actorId,omitempty"`
	Changes    json.RawMessage `db:"changes" json:"changes,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// NewEntry builds an entry with a fresh identity and timestamp.
func NewEntry(action, entityType string, entityID id.ID, actorID *id.ID, changes any) Entry {
	payload, _ := json.Marshal(changes)
	return Entry{
		ID:         id.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Changes:    payload,
		CreatedAt:  time.Now(),
	}
}

// Sink receives audit entries. Implementations must not fail the business
// operation on write errors; audit is best-effort.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// Discard is a Sink that drops everything (tests, seed tooling).
type Discard struct{}

func (Discard) Record(ctx context.Context, entry Entry) {}

package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry describes a single audit trail record for a domain operation
type AuditEntry struct {
	Action     string
	EntityType string
	EntityID   uuid.UUID
	ActorID    uuid.UUID
	Details    map[string]any
}

// NewAuditEntry creates an audit entry for an action on an entity
func NewAuditEntry(action, entityType string, entityID, actorID uuid.UUID, details map[string]any) AuditEntry {
	return AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Details:    details,
	}
}

// AuditTrailRecord is a persisted audit entry as read back from the store
type AuditTrailRecord struct {
	AuditEntry
	CreatedAt time.Time
}

// AuditSaver persists audit entries within an existing transaction.
// Repositories use this to write the audit trail in the same transaction
// as the aggregate, so a state transition and its audit record commit or
// roll back together.
type AuditSaver interface {
	// SaveEntries saves audit entries within the current transaction.
	// The txProvider should be a *gorm.DB transaction.
	SaveEntries(ctx context.Context, txProvider interface{}, entries ...AuditEntry) error
}

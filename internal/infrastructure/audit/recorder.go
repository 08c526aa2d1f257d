package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRecorder persists audit trail entries. It implements
// shared.AuditSaver so repositories can write entries inside the same
// transaction as the aggregate they describe.
type GormAuditRecorder struct {
	db *gorm.DB
}

// NewGormAuditRecorder creates a new GormAuditRecorder
func NewGormAuditRecorder(db *gorm.DB) *GormAuditRecorder {
	return &GormAuditRecorder{db: db}
}

// SaveEntries saves audit entries within the given transaction.
// txProvider must be a *gorm.DB; repositories pass their open transaction.
func (r *GormAuditRecorder) SaveEntries(ctx context.Context, txProvider interface{}, entries ...shared.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("audit: expected *gorm.DB transaction, got %T", txProvider)
	}

	rows := make([]*models.AuditLogModel, 0, len(entries))
	for _, entry := range entries {
		row, err := models.AuditLogModelFromEntry(entry)
		if err != nil {
			return fmt.Errorf("audit: marshal entry details: %w", err)
		}
		rows = append(rows, row)
	}

	return tx.WithContext(ctx).Create(rows).Error
}

// LogEvent records a standalone audit entry outside any transaction.
// Used for degradations observed after a state transition has committed.
func (r *GormAuditRecorder) LogEvent(ctx context.Context, action, entityType string, entityID, actorID uuid.UUID, details map[string]any) error {
	row, err := models.AuditLogModelFromEntry(shared.NewAuditEntry(action, entityType, entityID, actorID, details))
	if err != nil {
		return fmt.Errorf("audit: marshal entry details: %w", err)
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// FindByEntity returns the audit trail for one entity, newest first
func (r *GormAuditRecorder) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]shared.AuditTrailRecord, error) {
	var rows []models.AuditLogModel
	query := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]shared.AuditTrailRecord, len(rows))
	for i, row := range rows {
		var details map[string]any
		if len(row.Details) > 0 {
			// Unreadable stored details degrade to an empty map, not a failed read.
			_ = json.Unmarshal(row.Details, &details)
		}
		records[i] = shared.AuditTrailRecord{
			AuditEntry: shared.NewAuditEntry(row.Action, row.EntityType, row.EntityID, row.ActorID, details),
			CreatedAt:  row.CreatedAt,
		}
	}
	return records, nil
}

// Ensure GormAuditRecorder implements AuditSaver
var _ shared.AuditSaver = (*GormAuditRecorder)(nil)

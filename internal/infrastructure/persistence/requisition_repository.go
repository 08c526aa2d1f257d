package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRequisitionRepository implements RequisitionRepository using GORM
type GormRequisitionRepository struct {
	db         *gorm.DB
	auditSaver shared.AuditSaver // optional, writes audit entries in the same transaction
}

// NewGormRequisitionRepository creates a new GormRequisitionRepository
func NewGormRequisitionRepository(db *gorm.DB) *GormRequisitionRepository {
	return &GormRequisitionRepository{db: db}
}

// SetAuditSaver sets the audit saver used for in-transaction audit writes
func (r *GormRequisitionRepository) SetAuditSaver(saver shared.AuditSaver) {
	r.auditSaver = saver
}

// FindByID finds a requisition by its ID, including items and approval records
func (r *GormRequisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Requisition, error) {
	var model models.RequisitionModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Approvals").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a requisition by its requisition number
func (r *GormRequisitionRepository) FindByNumber(ctx context.Context, number string) (*procurement.Requisition, error) {
	var model models.RequisitionModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Approvals").
		Where("requisition_number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds requisitions with filtering, sorting and pagination
func (r *GormRequisitionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.Requisition, error) {
	var requisitionModels []models.RequisitionModel

	query := r.db.WithContext(ctx).Model(&models.RequisitionModel{})
	query = r.applyFilter(query, filter)

	sortField := ValidateSortField(filter.OrderBy, RequisitionSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Preload("Items").Find(&requisitionModels).Error; err != nil {
		return nil, err
	}

	requisitions := make([]procurement.Requisition, len(requisitionModels))
	for i := range requisitionModels {
		requisitions[i] = *requisitionModels[i].ToDomain()
	}
	return requisitions, nil
}

// FindOpenByDepartmentSince finds SUBMITTED or APPROVED requisitions for a
// department created at or after the given time
func (r *GormRequisitionRepository) FindOpenByDepartmentSince(ctx context.Context, departmentID uuid.UUID, since time.Time) ([]procurement.Requisition, error) {
	var requisitionModels []models.RequisitionModel
	if err := r.db.WithContext(ctx).
		Where("department_id = ? AND status IN ? AND created_at >= ?",
			departmentID,
			[]string{procurement.RequisitionStatusSubmitted.String(), procurement.RequisitionStatusApproved.String()},
			since).
		Find(&requisitionModels).Error; err != nil {
		return nil, err
	}

	requisitions := make([]procurement.Requisition, len(requisitionModels))
	for i := range requisitionModels {
		requisitions[i] = *requisitionModels[i].ToDomain()
	}
	return requisitions, nil
}

// Create persists a new requisition with its items and approval records.
// The requisition number is allocated from the per-year counter inside the
// same transaction, so concurrent creators can never observe a duplicate.
func (r *GormRequisitionRepository) Create(ctx context.Context, requisition *procurement.Requisition, auditEntries ...shared.AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := r.allocateNumber(tx, time.Now().Year())
		if err != nil {
			return err
		}
		requisition.RequisitionNumber = number

		model := models.RequisitionModelFromDomain(requisition)
		if err := tx.Omit("Items", "Approvals").Create(model).Error; err != nil {
			return err
		}

		for i := range requisition.Items {
			requisition.Items[i].RequisitionID = requisition.ID
			itemModel := models.RequisitionLineItemModelFromDomain(&requisition.Items[i])
			if err := tx.Create(itemModel).Error; err != nil {
				return err
			}
		}
		for i := range requisition.Approvals {
			requisition.Approvals[i].RequisitionID = requisition.ID
			approvalModel := models.RequisitionApprovalModelFromDomain(&requisition.Approvals[i])
			if err := tx.Create(approvalModel).Error; err != nil {
				return err
			}
		}

		return r.saveAudit(ctx, tx, auditEntries)
	})
}

// allocateNumber atomically increments the year's counter and formats the
// requisition number. The upsert serializes concurrent allocators on the
// counter row, so each caller gets a distinct, strictly increasing value.
func (r *GormRequisitionRepository) allocateNumber(tx *gorm.DB, year int) (string, error) {
	var next int64
	err := tx.Raw(
		`INSERT INTO requisition_sequences (year, value) VALUES (?, 1)
		 ON CONFLICT (year) DO UPDATE SET value = requisition_sequences.value + 1
		 RETURNING value`, year).Scan(&next).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REQ-%d-%03d", year, next), nil
}

// SaveWithLock saves the requisition guarded by an optimistic version check.
// The domain has already incremented the in-memory version; the update only
// applies if the stored row still carries the previous version. Approval
// record changes and audit entries ride in the same transaction.
func (r *GormRequisitionRepository) SaveWithLock(ctx context.Context, requisition *procurement.Requisition, auditEntries ...shared.AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expectedVersion := requisition.Version - 1

		result := tx.Model(&models.RequisitionModel{}).
			Where("id = ? AND version = ?", requisition.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":               requisition.Status,
				"total_amount":         requisition.TotalAmount,
				"workflow_instance_id": requisition.WorkflowInstanceID,
				"submitted_at":         requisition.SubmittedAt,
				"approved_at":          requisition.ApprovedAt,
				"rejected_at":          requisition.RejectedAt,
				"cancelled_at":         requisition.CancelledAt,
				"cancel_reason":        requisition.CancelReason,
				"version":              requisition.Version,
				"updated_at":           requisition.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Either the row vanished or another writer moved the version on.
			var count int64
			if err := tx.Model(&models.RequisitionModel{}).
				Where("id = ?", requisition.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		for i := range requisition.Approvals {
			approvalModel := models.RequisitionApprovalModelFromDomain(&requisition.Approvals[i])
			if err := tx.Save(approvalModel).Error; err != nil {
				return err
			}
		}

		return r.saveAudit(ctx, tx, auditEntries)
	})
}

// SetWorkflowInstance records the workflow instance handle. This runs outside
// the submit transaction because the workflow start itself is best-effort.
func (r *GormRequisitionRepository) SetWorkflowInstance(ctx context.Context, id uuid.UUID, instanceID string) error {
	return r.db.WithContext(ctx).
		Model(&models.RequisitionModel{}).
		Where("id = ?", id).
		Update("workflow_instance_id", instanceID).Error
}

// Delete removes a requisition with its items and approval records
func (r *GormRequisitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("requisition_id = ?", id).Delete(&models.RequisitionLineItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("requisition_id = ?", id).Delete(&models.RequisitionApprovalModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.RequisitionModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts requisitions matching the filter
func (r *GormRequisitionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.RequisitionModel{})
	query = r.applyFilter(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts requisitions in the given status
func (r *GormRequisitionRepository) CountByStatus(ctx context.Context, status procurement.RequisitionStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RequisitionModel{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies the filter conditions to the query
func (r *GormRequisitionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if priority, ok := filter.Filters["priority"]; ok {
		query = query.Where("priority = ?", priority)
	}
	if reqType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", reqType)
	}
	if requestorID, ok := filter.Filters["requestor_id"]; ok {
		query = query.Where("requestor_id = ?", requestorID)
	}
	if departmentID, ok := filter.Filters["department_id"]; ok {
		query = query.Where("department_id = ?", departmentID)
	}
	if from, ok := filter.Filters["created_from"]; ok {
		query = query.Where("created_at >= ?", from)
	}
	if to, ok := filter.Filters["created_to"]; ok {
		query = query.Where("created_at <= ?", to)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR requisition_number ILIKE ?", search, search)
	}
	return query
}

// saveAudit writes the audit entries inside the current transaction
func (r *GormRequisitionRepository) saveAudit(ctx context.Context, tx *gorm.DB, entries []shared.AuditEntry) error {
	if r.auditSaver == nil || len(entries) == 0 {
		return nil
	}
	return r.auditSaver.SaveEntries(ctx, tx, entries...)
}

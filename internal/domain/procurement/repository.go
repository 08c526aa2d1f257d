package procurement

import (
	"context"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// RequisitionRepository defines the interface for requisition persistence
type RequisitionRepository interface {
	// FindByID finds a requisition by ID including items and approval records
	FindByID(ctx context.Context, id uuid.UUID) (*Requisition, error)

	// FindByNumber finds a requisition by its requisition number
	FindByNumber(ctx context.Context, number string) (*Requisition, error)

	// FindAll finds requisitions with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Requisition, error)

	// FindOpenByDepartmentSince finds SUBMITTED or APPROVED requisitions for a
	// department created at or after the given time. Used by the duplicate
	// detection heuristic.
	FindOpenByDepartmentSince(ctx context.Context, departmentID uuid.UUID, since time.Time) ([]Requisition, error)

	// Create persists a new requisition, allocating its requisition number
	// from the year-scoped sequence inside the same transaction. Audit
	// entries are written in that transaction as well.
	Create(ctx context.Context, requisition *Requisition, auditEntries ...shared.AuditEntry) error

	// SaveWithLock saves with optimistic locking (version check) and writes
	// the audit entries in the same transaction. Returns
	// shared.ErrConcurrencyConflict when the stored version has moved on.
	SaveWithLock(ctx context.Context, requisition *Requisition, auditEntries ...shared.AuditEntry) error

	// SetWorkflowInstance records the workflow instance handle after a
	// successful engine start. Best-effort update outside the submit
	// transaction.
	SetWorkflowInstance(ctx context.Context, id uuid.UUID, instanceID string) error

	// Delete removes a draft requisition and its line items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts requisitions matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus counts requisitions per status
	CountByStatus(ctx context.Context, status RequisitionStatus) (int64, error)
}

// RuleProvider supplies the externally configured approval rules for a
// process type. Implementations may read from the database, configuration
// or a remote rules service.
type RuleProvider interface {
	// GetApprovalRules returns the active approval rules for the process type
	GetApprovalRules(ctx context.Context, processType string) ([]*ApprovalRule, error)
}

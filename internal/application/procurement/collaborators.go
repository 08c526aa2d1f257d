package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkflowOutcome classifies the result of a workflow engine start attempt.
// Failures are a first-class outcome rather than an implicit no-op so callers
// can observe and test the degraded path.
type WorkflowOutcome string

const (
	// WorkflowStarted means the engine accepted the start request
	WorkflowStarted WorkflowOutcome = "STARTED"
	// WorkflowSkipped means no engine is configured; nothing was attempted
	WorkflowSkipped WorkflowOutcome = "SKIPPED"
	// WorkflowFailed means the engine was called and returned an error
	WorkflowFailed WorkflowOutcome = "FAILED"
)

// WorkflowStartResult is the outcome of a best-effort workflow start.
// Err is only set when Outcome is WorkflowFailed.
type WorkflowStartResult struct {
	Outcome    WorkflowOutcome
	InstanceID string
	Err        error
}

// WorkflowEngine starts external approval workflow instances on submission.
// Implementations must never panic through to the caller; any transport or
// engine failure is reported via the result's Failed outcome.
type WorkflowEngine interface {
	StartApprovalWorkflow(ctx context.Context, requisition *procurement.Requisition) WorkflowStartResult
}

// AuditRecorder writes standalone audit entries and reads an entity's trail
// back. Unlike shared.AuditSaver it does not take part in a repository
// transaction; LogEvent is for facts observed after a transition has already
// committed, where another optimistic save of the aggregate is not possible.
type AuditRecorder interface {
	LogEvent(ctx context.Context, action, entityType string, entityID, actorID uuid.UUID, details map[string]any) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]shared.AuditTrailRecord, error)
}

// BudgetProvider reports the remaining spend capacity for a department and
// category. The budget data is owned elsewhere; errors here degrade the
// budget check rather than failing it.
type BudgetProvider interface {
	GetAvailable(ctx context.Context, departmentID uuid.UUID, category string) (decimal.Decimal, error)
}

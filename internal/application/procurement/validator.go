package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// duplicateLookbackDays is the trailing window for the duplicate heuristic
const duplicateLookbackDays = 30

// RequisitionValidator performs creation-time structural validation plus the
// advisory duplicate and budget checks. Structural checks are evaluated in
// full so the caller receives every violation at once.
type RequisitionValidator struct {
	repo   procurement.RequisitionRepository
	budget BudgetProvider
	logger *zap.Logger
}

// NewRequisitionValidator creates a new RequisitionValidator
func NewRequisitionValidator(repo procurement.RequisitionRepository, budget BudgetProvider, logger *zap.Logger) *RequisitionValidator {
	return &RequisitionValidator{
		repo:   repo,
		budget: budget,
		logger: logger,
	}
}

// createCheck is one independent predicate+message pair over the create request
type createCheck struct {
	failed  func(req *CreateRequisitionRequest) bool
	message func(req *CreateRequisitionRequest) string
}

var createChecks = []createCheck{
	{
		failed: func(req *CreateRequisitionRequest) bool {
			return strings.TrimSpace(req.Title) == ""
		},
		message: func(req *CreateRequisitionRequest) string {
			return "title must not be empty"
		},
	},
	{
		failed: func(req *CreateRequisitionRequest) bool {
			return req.DepartmentID == uuid.Nil
		},
		message: func(req *CreateRequisitionRequest) string {
			return "department is required"
		},
	},
	{
		failed: func(req *CreateRequisitionRequest) bool {
			return !req.RequiredByDate.After(time.Now())
		},
		message: func(req *CreateRequisitionRequest) string {
			return "required-by date must be in the future"
		},
	},
	{
		failed: func(req *CreateRequisitionRequest) bool {
			return len(req.Items) == 0
		},
		message: func(req *CreateRequisitionRequest) string {
			return "requisition must have at least one item"
		},
	},
}

// ValidateCreateRequest runs every structural check and returns the full list
// of violations. An empty slice means the request passed.
func (v *RequisitionValidator) ValidateCreateRequest(req *CreateRequisitionRequest) []string {
	violations := make([]string, 0)

	for _, check := range createChecks {
		if check.failed(req) {
			violations = append(violations, check.message(req))
		}
	}

	for i := range req.Items {
		item := &req.Items[i]
		pos := i + 1
		if strings.TrimSpace(item.Description) == "" {
			violations = append(violations, fmt.Sprintf("item %d: description must not be empty", pos))
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			violations = append(violations, fmt.Sprintf("item %d: quantity must be positive", pos))
		}
		if item.EstimatedPrice.LessThanOrEqual(decimal.Zero) {
			violations = append(violations, fmt.Sprintf("item %d: estimated price must be positive", pos))
		}
		if strings.TrimSpace(item.Category) == "" {
			violations = append(violations, fmt.Sprintf("item %d: category is required", pos))
		}
		if item.RequestedDate.IsZero() {
			violations = append(violations, fmt.Sprintf("item %d: requested delivery date is required", pos))
		}
	}

	return violations
}

// ValidateRequisition runs the advisory validation over an existing
// requisition: structural sanity plus the duplicate heuristic over open
// requisitions in the same department from the trailing 30 days.
func (v *RequisitionValidator) ValidateRequisition(ctx context.Context, r *procurement.Requisition) (ValidationResult, error) {
	reasons := make([]string, 0)

	if len(r.Items) == 0 {
		reasons = append(reasons, "requisition has no line items")
	}
	if r.TotalAmount.LessThanOrEqual(decimal.Zero) {
		reasons = append(reasons, "requisition total must be positive")
	}
	if !r.RequiredByDate.After(time.Now()) {
		reasons = append(reasons, "required-by date is not in the future")
	}

	duplicates, err := v.findPossibleDuplicates(ctx, r)
	if err != nil {
		return ValidationResult{}, err
	}
	reasons = append(reasons, duplicates...)

	return ValidationResult{
		Valid:  len(reasons) == 0,
		Errors: reasons,
	}, nil
}

// findPossibleDuplicates flags open requisitions in the same department from
// the trailing window whose title shares a leading keyword with this one.
// The heuristic is intentionally permissive; a flag is a warning, not a block.
func (v *RequisitionValidator) findPossibleDuplicates(ctx context.Context, r *procurement.Requisition) ([]string, error) {
	keyword := leadingKeyword(r.Title)
	if keyword == "" {
		return nil, nil
	}

	since := time.Now().AddDate(0, 0, -duplicateLookbackDays)
	open, err := v.repo.FindOpenByDepartmentSince(ctx, r.DepartmentID, since)
	if err != nil {
		return nil, err
	}

	reasons := make([]string, 0)
	for i := range open {
		other := &open[i]
		if other.ID == r.ID {
			continue
		}
		if leadingKeyword(other.Title) == keyword {
			reasons = append(reasons, fmt.Sprintf("possible duplicate of %s (%q)", other.RequisitionNumber, other.Title))
		}
	}
	return reasons, nil
}

// leadingKeyword returns the first whitespace-separated token of the title,
// lowercased for comparison
func leadingKeyword(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// CheckBudgetAvailability asks the budget collaborator whether the
// requisition's total fits in the remaining department/category budget.
// Collaborator failures degrade the result instead of blocking validation.
func (v *RequisitionValidator) CheckBudgetAvailability(ctx context.Context, r *procurement.Requisition) BudgetCheckResult {
	if v.budget == nil {
		return BudgetCheckResult{Degraded: true}
	}

	category := ""
	if len(r.Items) > 0 {
		category = r.Items[0].Category
	}

	available, err := v.budget.GetAvailable(ctx, r.DepartmentID, category)
	if err != nil {
		v.logger.Warn("budget collaborator unavailable, returning degraded result",
			zap.String("requisition_id", r.ID.String()),
			zap.String("department_id", r.DepartmentID.String()),
			zap.Error(err))
		return BudgetCheckResult{Degraded: true}
	}

	remaining := available.Sub(r.TotalAmount)
	return BudgetCheckResult{
		Available: r.TotalAmount.LessThanOrEqual(available),
		Remaining: remaining,
	}
}

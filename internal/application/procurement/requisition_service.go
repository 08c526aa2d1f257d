package procurement

import (
	"context"
	"errors"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds the optimistic-lock retry loop on approval paths.
// Two approvers racing on the last outstanding records is expected; a handful
// of retries resolves it.
const maxSaveAttempts = 3

// Audit actions recorded by the service
const (
	auditActionCreated   = "REQUISITION_CREATED"
	auditActionSubmitted = "REQUISITION_SUBMITTED"
	auditActionApproval  = "REQUISITION_APPROVAL_RECORDED"
	auditActionApproved  = "REQUISITION_APPROVED"
	auditActionRejected  = "REQUISITION_REJECTED"
	auditActionCancelled = "REQUISITION_CANCELLED"
	auditActionWorkflow  = "REQUISITION_WORKFLOW_START_FAILED"
)

// RequisitionService coordinates the requisition lifecycle: creation with
// rule-driven approval record materialization, submission with best-effort
// workflow start, and the approve/reject/cancel transitions.
type RequisitionService struct {
	repo           procurement.RequisitionRepository
	rules          procurement.RuleProvider
	validator      *RequisitionValidator
	workflow       WorkflowEngine
	audit          AuditRecorder
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewRequisitionService creates a new RequisitionService
func NewRequisitionService(
	repo procurement.RequisitionRepository,
	rules procurement.RuleProvider,
	validator *RequisitionValidator,
	workflow WorkflowEngine,
	logger *zap.Logger,
) *RequisitionService {
	return &RequisitionService{
		repo:      repo,
		rules:     rules,
		validator: validator,
		workflow:  workflow,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *RequisitionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAuditRecorder sets the recorder used for post-commit audit entries and
// audit trail reads
func (s *RequisitionService) SetAuditRecorder(recorder AuditRecorder) {
	s.audit = recorder
}

// Create creates a new requisition with its line items and the approval
// records materialized from the configured rules. Header, items, records and
// the audit entry are persisted in one transaction; the creation event is
// published after commit.
func (s *RequisitionService) Create(ctx context.Context, requestorID uuid.UUID, req CreateRequisitionRequest) (*RequisitionResponse, error) {
	if violations := s.validator.ValidateCreateRequest(&req); len(violations) > 0 {
		return nil, shared.NewValidationError(violations)
	}

	requisition, err := procurement.NewRequisition(
		requestorID,
		req.DepartmentID,
		req.Title,
		procurement.Priority(req.Priority),
		procurement.RequisitionType(req.Type),
		req.RequiredByDate,
	)
	if err != nil {
		return nil, err
	}
	requisition.Description = req.Description
	requisition.Justification = req.Justification

	for _, input := range req.Items {
		item, err := procurement.NewLineItem(
			requisition.ID,
			input.Description,
			input.Quantity,
			input.EstimatedPrice,
			input.Currency,
			input.Unit,
			input.Category,
			input.RequestedDate,
		)
		if err != nil {
			return nil, err
		}
		item.ProductID = input.ProductID
		item.UnitPrice = input.UnitPrice
		item.Notes = input.Notes
		item.SuggestedSupplierIDs = input.SuggestedSupplierIDs
		if err := requisition.AddItem(item); err != nil {
			return nil, err
		}
	}

	rules, err := s.rules.GetApprovalRules(ctx, procurement.ProcessTypeRequisition)
	if err != nil {
		return nil, err
	}
	records, err := procurement.MaterializeApprovalRecords(requisition, rules)
	if err != nil {
		return nil, err
	}
	requisition.AttachApprovalRecords(records)

	audit := shared.NewAuditEntry(auditActionCreated, procurement.AggregateTypeRequisition, requisition.ID, requestorID, map[string]any{
		"total_amount":   requisition.TotalAmount.String(),
		"item_count":     requisition.ItemCount(),
		"approval_count": len(requisition.Approvals),
	})
	if err := s.repo.Create(ctx, requisition, audit); err != nil {
		return nil, err
	}

	requisition.AddDomainEvent(procurement.NewRequisitionCreatedEvent(requisition))
	s.publishEvents(ctx, requisition)

	response := ToRequisitionResponse(requisition)
	return &response, nil
}

// Submit transitions a draft requisition to SUBMITTED and best-effort starts
// the external approval workflow. A workflow failure never rolls back the
// already-committed submission; it is recorded as a degradation.
func (s *RequisitionService) Submit(ctx context.Context, id, userID uuid.UUID) (*SubmitRequisitionResponse, error) {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := requisition.Submit(userID); err != nil {
		return nil, err
	}

	audit := shared.NewAuditEntry(auditActionSubmitted, procurement.AggregateTypeRequisition, requisition.ID, userID, map[string]any{
		"requisition_number": requisition.RequisitionNumber,
		"pending_approvals":  len(requisition.PendingApprovals()),
	})
	if err := s.repo.SaveWithLock(ctx, requisition, audit); err != nil {
		return nil, err
	}

	result := s.startWorkflow(ctx, requisition, userID)

	s.publishEvents(ctx, requisition)

	return &SubmitRequisitionResponse{
		Requisition:        ToRequisitionResponse(requisition),
		WorkflowOutcome:    result.Outcome,
		WorkflowInstanceID: result.InstanceID,
	}, nil
}

// startWorkflow runs the best-effort workflow start after the submission has
// committed. Failures are logged, audited and surfaced as an event, never
// returned as errors.
func (s *RequisitionService) startWorkflow(ctx context.Context, requisition *procurement.Requisition, userID uuid.UUID) WorkflowStartResult {
	if s.workflow == nil {
		return WorkflowStartResult{Outcome: WorkflowSkipped}
	}

	result := s.workflow.StartApprovalWorkflow(ctx, requisition)
	switch result.Outcome {
	case WorkflowStarted:
		requisition.SetWorkflowInstance(result.InstanceID)
		if err := s.repo.SetWorkflowInstance(ctx, requisition.ID, result.InstanceID); err != nil {
			s.logger.Warn("failed to record workflow instance",
				zap.String("requisition_id", requisition.ID.String()),
				zap.String("instance_id", result.InstanceID),
				zap.Error(err))
		}
	case WorkflowFailed:
		reason := "workflow engine error"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		s.logger.Warn("workflow start failed, submission stands",
			zap.String("requisition_id", requisition.ID.String()),
			zap.String("reason", reason))
		requisition.AddDomainEvent(procurement.NewRequisitionWorkflowFailedEvent(requisition, reason))
		s.recordDegradation(ctx, requisition.ID, userID, map[string]any{
			"reason": reason,
		})
	}
	return result
}

// recordDegradation writes a standalone audit entry for a failure observed
// after the submission already committed. The aggregate row is untouched, so
// this must not go through the version-checked save path.
func (s *RequisitionService) recordDegradation(ctx context.Context, requisitionID, userID uuid.UUID, details map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, auditActionWorkflow, procurement.AggregateTypeRequisition, requisitionID, userID, details); err != nil {
		s.logger.Warn("failed to record workflow degradation",
			zap.String("requisition_id", requisitionID.String()),
			zap.Error(err))
	}
}

// Approve records one approver's decision and promotes the requisition to
// APPROVED once every required record is approved. A concurrent approval on
// the same requisition triggers an optimistic-lock retry so exactly one
// caller performs the promotion.
func (s *RequisitionService) Approve(ctx context.Context, id, approverID uuid.UUID, comments string) (*RequisitionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		requisition, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		promoted, err := requisition.ApplyApproval(approverID, comments)
		if err != nil {
			return nil, err
		}

		entries := []shared.AuditEntry{
			shared.NewAuditEntry(auditActionApproval, procurement.AggregateTypeRequisition, requisition.ID, approverID, map[string]any{
				"comments": comments,
				"promoted": promoted,
			}),
		}
		if promoted {
			entries = append(entries, shared.NewAuditEntry(auditActionApproved, procurement.AggregateTypeRequisition, requisition.ID, approverID, map[string]any{
				"requisition_number": requisition.RequisitionNumber,
			}))
		}

		err = s.repo.SaveWithLock(ctx, requisition, entries...)
		if err == nil {
			s.publishEvents(ctx, requisition)
			response := ToRequisitionResponse(requisition)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("approval save conflicted, retrying",
			zap.String("requisition_id", id.String()),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// Reject records one approver's rejection and moves the requisition to
// REJECTED. Same retry shape as Approve.
func (s *RequisitionService) Reject(ctx context.Context, id, approverID uuid.UUID, comments string) (*RequisitionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		requisition, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := requisition.ApplyRejection(approverID, comments); err != nil {
			return nil, err
		}

		audit := shared.NewAuditEntry(auditActionRejected, procurement.AggregateTypeRequisition, requisition.ID, approverID, map[string]any{
			"comments": comments,
		})
		err = s.repo.SaveWithLock(ctx, requisition, audit)
		if err == nil {
			s.publishEvents(ctx, requisition)
			response := ToRequisitionResponse(requisition)
			return &response, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Cancel cancels a DRAFT or SUBMITTED requisition
func (s *RequisitionService) Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*RequisitionResponse, error) {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := requisition.Cancel(userID, reason); err != nil {
		return nil, err
	}

	audit := shared.NewAuditEntry(auditActionCancelled, procurement.AggregateTypeRequisition, requisition.ID, userID, map[string]any{
		"reason": reason,
	})
	if err := s.repo.SaveWithLock(ctx, requisition, audit); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, requisition)

	response := ToRequisitionResponse(requisition)
	return &response, nil
}

// GetByID retrieves a requisition by ID
func (s *RequisitionService) GetByID(ctx context.Context, id uuid.UUID) (*RequisitionResponse, error) {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToRequisitionResponse(requisition)
	return &response, nil
}

// GetByNumber retrieves a requisition by requisition number
func (s *RequisitionService) GetByNumber(ctx context.Context, number string) (*RequisitionResponse, error) {
	requisition, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToRequisitionResponse(requisition)
	return &response, nil
}

// List retrieves requisitions with filtering, pagination and sorting
func (s *RequisitionService) List(ctx context.Context, filter RequisitionListFilter) (*shared.Paginated[RequisitionListItemResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.SortBy == "" {
		filter.SortBy = "created_at"
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.SortBy,
		OrderDir: filter.SortOrder,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.RequestorID != nil {
		domainFilter.Filters["requestor_id"] = *filter.RequestorID
	}
	if filter.DepartmentID != nil {
		domainFilter.Filters["department_id"] = *filter.DepartmentID
	}
	if filter.CreatedFrom != nil {
		domainFilter.Filters["created_from"] = *filter.CreatedFrom
	}
	if filter.CreatedTo != nil {
		domainFilter.Filters["created_to"] = *filter.CreatedTo
	}

	requisitions, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]RequisitionListItemResponse, len(requisitions))
	for i := range requisitions {
		items[i] = ToRequisitionListItemResponse(&requisitions[i])
	}

	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Validate runs the advisory duplicate/structural validation for a requisition
func (s *RequisitionService) Validate(ctx context.Context, id uuid.UUID) (*ValidationResult, error) {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := s.validator.ValidateRequisition(ctx, requisition)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckBudget reports whether the requisition fits the remaining budget
func (s *RequisitionService) CheckBudget(ctx context.Context, id uuid.UUID) (*BudgetCheckResult, error) {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := s.validator.CheckBudgetAvailability(ctx, requisition)
	return &result, nil
}

// GetStatusSummary returns requisition counts per status
func (s *RequisitionService) GetStatusSummary(ctx context.Context) (*StatusSummaryResponse, error) {
	summary := &StatusSummaryResponse{}
	counts := []struct {
		status procurement.RequisitionStatus
		target *int64
	}{
		{procurement.RequisitionStatusDraft, &summary.Draft},
		{procurement.RequisitionStatusSubmitted, &summary.Submitted},
		{procurement.RequisitionStatusApproved, &summary.Approved},
		{procurement.RequisitionStatusRejected, &summary.Rejected},
		{procurement.RequisitionStatusCancelled, &summary.Cancelled},
	}
	for _, c := range counts {
		count, err := s.repo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = count
		summary.Total += count
	}
	return summary, nil
}

// GetAuditTrail returns the persisted audit entries for a requisition,
// newest first. The requisition must exist; an unconfigured recorder yields
// an empty trail.
func (s *RequisitionService) GetAuditTrail(ctx context.Context, id uuid.UUID, limit int) ([]AuditTrailEntryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []AuditTrailEntryResponse{}, nil
	}
	records, err := s.audit.FindByEntity(ctx, procurement.AggregateTypeRequisition, id, limit)
	if err != nil {
		return nil, err
	}
	return ToAuditTrailResponses(records), nil
}

// DeleteDraft deletes a requisition that is still in DRAFT status
func (s *RequisitionService) DeleteDraft(ctx context.Context, id, userID uuid.UUID) error {
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !requisition.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Only draft requisitions can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// publishEvents publishes pending domain events and clears them.
// Publishing is fire-and-forget: failures are logged, never returned.
func (s *RequisitionService) publishEvents(ctx context.Context, requisition *procurement.Requisition) {
	defer requisition.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	for _, event := range requisition.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err))
		}
	}
}

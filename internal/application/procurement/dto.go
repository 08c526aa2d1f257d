package procurement

import (
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requisition DTOs ====================

// CreateRequisitionRequest represents a request to create a requisition
type CreateRequisitionRequest struct {
	Title          string          `json:"title" binding:"required,min=1,max=200"`
	Description    string          `json:"description" binding:"max=2000"`
	DepartmentID   uuid.UUID       `json:"department_id" binding:"required"`
	Priority       string          `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	Type           string          `json:"type" binding:"required,oneof=STOCK DIRECT SERVICE ASSET"`
	RequiredByDate time.Time       `json:"required_by_date" binding:"required"`
	Justification  string          `json:"justification" binding:"max=1000"`
	Items          []LineItemInput `json:"items"`
}

// LineItemInput represents one line item in the create request
type LineItemInput struct {
	ProductID            *uuid.UUID       `json:"product_id"`
	Description          string           `json:"description" binding:"max=500"`
	Quantity             decimal.Decimal  `json:"quantity"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	EstimatedPrice       decimal.Decimal  `json:"estimated_price"`
	Currency             string           `json:"currency" binding:"omitempty,len=3"`
	Unit                 string           `json:"unit" binding:"max=20"`
	Category             string           `json:"category" binding:"max=100"`
	RequestedDate        time.Time        `json:"requested_date"`
	Notes                string           `json:"notes" binding:"max=500"`
	SuggestedSupplierIDs []uuid.UUID      `json:"suggested_supplier_ids"`
}

// RequisitionListFilter represents query filters for listing requisitions
type RequisitionListFilter struct {
	Status       string     `form:"status" binding:"omitempty,oneof=DRAFT SUBMITTED APPROVED REJECTED CANCELLED"`
	Priority     string     `form:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	Type         string     `form:"type" binding:"omitempty,oneof=STOCK DIRECT SERVICE ASSET"`
	RequestorID  *uuid.UUID `form:"requestor_id"`
	DepartmentID *uuid.UUID `form:"department_id"`
	CreatedFrom  *time.Time `form:"created_from" time_format:"2006-01-02"`
	CreatedTo    *time.Time `form:"created_to" time_format:"2006-01-02"`
	Search       string     `form:"search" binding:"max=100"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
	SortBy       string     `form:"sort_by"`
	SortOrder    string     `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents a line item in responses
type LineItemResponse struct {
	ID                   uuid.UUID        `json:"id"`
	ProductID            *uuid.UUID       `json:"product_id,omitempty"`
	Description          string           `json:"description"`
	Quantity             decimal.Decimal  `json:"quantity"`
	UnitPrice            *decimal.Decimal `json:"unit_price,omitempty"`
	EstimatedPrice       decimal.Decimal  `json:"estimated_price"`
	LineTotal            decimal.Decimal  `json:"line_total"`
	Currency             string           `json:"currency"`
	Unit                 string           `json:"unit"`
	Category             string           `json:"category"`
	RequestedDate        time.Time        `json:"requested_date"`
	Notes                string           `json:"notes,omitempty"`
	SuggestedSupplierIDs []uuid.UUID      `json:"suggested_supplier_ids,omitempty"`
}

// ApprovalRecordResponse represents an approval record in responses
type ApprovalRecordResponse struct {
	ID         uuid.UUID  `json:"id"`
	ApproverID uuid.UUID  `json:"approver_id"`
	Level      int        `json:"level"`
	Required   bool       `json:"required"`
	Status     string     `json:"status"`
	Comments   string     `json:"comments,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// RequisitionResponse represents a fully hydrated requisition
type RequisitionResponse struct {
	ID                 uuid.UUID                `json:"id"`
	RequisitionNumber  string                   `json:"requisition_number"`
	Title              string                   `json:"title"`
	Description        string                   `json:"description,omitempty"`
	RequestorID        uuid.UUID                `json:"requestor_id"`
	DepartmentID       uuid.UUID                `json:"department_id"`
	Priority           string                   `json:"priority"`
	Type               string                   `json:"type"`
	Status             string                   `json:"status"`
	TotalAmount        decimal.Decimal          `json:"total_amount"`
	Currency           string                   `json:"currency"`
	RequiredByDate     time.Time                `json:"required_by_date"`
	Justification      string                   `json:"justification,omitempty"`
	WorkflowInstanceID string                   `json:"workflow_instance_id,omitempty"`
	Items              []LineItemResponse       `json:"items"`
	Approvals          []ApprovalRecordResponse `json:"approvals"`
	SubmittedAt        *time.Time               `json:"submitted_at,omitempty"`
	ApprovedAt         *time.Time               `json:"approved_at,omitempty"`
	RejectedAt         *time.Time               `json:"rejected_at,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	CancelReason       string                   `json:"cancel_reason,omitempty"`
	Version            int                      `json:"version"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// RequisitionListItemResponse is the compact list representation
type RequisitionListItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	RequisitionNumber string          `json:"requisition_number"`
	Title             string          `json:"title"`
	RequestorID       uuid.UUID       `json:"requestor_id"`
	DepartmentID      uuid.UUID       `json:"department_id"`
	Priority          string          `json:"priority"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency"`
	RequiredByDate    time.Time       `json:"required_by_date"`
	ItemCount         int             `json:"item_count"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SubmitRequisitionResponse carries the refreshed requisition plus the
// best-effort workflow start outcome
type SubmitRequisitionResponse struct {
	Requisition        RequisitionResponse `json:"requisition"`
	WorkflowOutcome    WorkflowOutcome     `json:"workflow_outcome"`
	WorkflowInstanceID string              `json:"workflow_instance_id,omitempty"`
}

// ValidationResult is the outcome of an advisory requisition validation
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// BudgetCheckResult reports whether a requisition fits the remaining budget.
// Degraded is true when the budget collaborator could not be reached, in
// which case Available must be treated as unknown.
type BudgetCheckResult struct {
	Available bool            `json:"available"`
	Remaining decimal.Decimal `json:"remaining"`
	Degraded  bool            `json:"degraded"`
}

// AuditTrailEntryResponse represents one persisted audit entry
type AuditTrailEntryResponse struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StatusSummaryResponse reports requisition counts per status
type StatusSummaryResponse struct {
	Draft     int64 `json:"draft"`
	Submitted int64 `json:"submitted"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// ==================== Mappers ====================

// ToLineItemResponse converts a domain line item to a response DTO
func ToLineItemResponse(item *procurement.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:                   item.ID,
		ProductID:            item.ProductID,
		Description:          item.Description,
		Quantity:             item.Quantity,
		UnitPrice:            item.UnitPrice,
		EstimatedPrice:       item.EstimatedPrice,
		LineTotal:            item.LineTotal(),
		Currency:             item.Currency,
		Unit:                 item.Unit,
		Category:             item.Category,
		RequestedDate:        item.RequestedDate,
		Notes:                item.Notes,
		SuggestedSupplierIDs: item.SuggestedSupplierIDs,
	}
}

// ToApprovalRecordResponse converts a domain approval record to a response DTO
func ToApprovalRecordResponse(record *procurement.ApprovalRecord) ApprovalRecordResponse {
	return ApprovalRecordResponse{
		ID:         record.ID,
		ApproverID: record.ApproverID,
		Level:      record.Level,
		Required:   record.Required,
		Status:     record.Status.String(),
		Comments:   record.Comments,
		ApprovedAt: record.ApprovedAt,
	}
}

// ToRequisitionResponse converts a domain requisition to a response DTO
func ToRequisitionResponse(r *procurement.Requisition) RequisitionResponse {
	items := make([]LineItemResponse, len(r.Items))
	for i := range r.Items {
		items[i] = ToLineItemResponse(&r.Items[i])
	}
	approvals := make([]ApprovalRecordResponse, len(r.Approvals))
	for i := range r.Approvals {
		approvals[i] = ToApprovalRecordResponse(&r.Approvals[i])
	}

	return RequisitionResponse{
		ID:                 r.ID,
		RequisitionNumber:  r.RequisitionNumber,
		Title:              r.Title,
		Description:        r.Description,
		RequestorID:        r.RequestorID,
		DepartmentID:       r.DepartmentID,
		Priority:           string(r.Priority),
		Type:               string(r.Type),
		Status:             r.Status.String(),
		TotalAmount:        r.TotalAmount,
		Currency:           r.Currency,
		RequiredByDate:     r.RequiredByDate,
		Justification:      r.Justification,
		WorkflowInstanceID: r.WorkflowInstanceID,
		Items:              items,
		Approvals:          approvals,
		SubmittedAt:        r.SubmittedAt,
		ApprovedAt:         r.ApprovedAt,
		RejectedAt:         r.RejectedAt,
		CancelledAt:        r.CancelledAt,
		CancelReason:       r.CancelReason,
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// ToAuditTrailResponses converts persisted audit records to response DTOs
func ToAuditTrailResponses(records []shared.AuditTrailRecord) []AuditTrailEntryResponse {
	responses := make([]AuditTrailEntryResponse, len(records))
	for i, record := range records {
		responses[i] = AuditTrailEntryResponse{
			Action:     record.Action,
			EntityType: record.EntityType,
			EntityID:   record.EntityID,
			ActorID:    record.ActorID,
			Details:    record.Details,
			CreatedAt:  record.CreatedAt,
		}
	}
	return responses
}

// ToRequisitionListItemResponse converts a domain requisition to a list item DTO
func ToRequisitionListItemResponse(r *procurement.Requisition) RequisitionListItemResponse {
	return RequisitionListItemResponse{
		ID:                r.ID,
		RequisitionNumber: r.RequisitionNumber,
		Title:             r.Title,
		RequestorID:       r.RequestorID,
		DepartmentID:      r.DepartmentID,
		Priority:          string(r.Priority),
		Type:              string(r.Type),
		Status:            r.Status.String(),
		TotalAmount:       r.TotalAmount,
		Currency:          r.Currency,
		RequiredByDate:    r.RequiredByDate,
		ItemCount:         r.ItemCount(),
		SubmittedAt:       r.SubmittedAt,
		CreatedAt:         r.CreatedAt,
	}
}

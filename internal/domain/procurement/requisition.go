package procurement

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequisitionStatus represents the status of a purchase requisition
type RequisitionStatus string

const (
	RequisitionStatusDraft     RequisitionStatus = "DRAFT"
	RequisitionStatusSubmitted RequisitionStatus = "SUBMITTED"
	RequisitionStatusApproved  RequisitionStatus = "APPROVED"
	RequisitionStatusRejected  RequisitionStatus = "REJECTED"
	RequisitionStatusCancelled RequisitionStatus = "CANCELLED"
)

// IsValid checks if the status is a valid RequisitionStatus
func (s RequisitionStatus) IsValid() bool {
	switch s {
	case RequisitionStatusDraft, RequisitionStatusSubmitted, RequisitionStatusApproved,
		RequisitionStatusRejected, RequisitionStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RequisitionStatus
func (s RequisitionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RequisitionStatus) CanTransitionTo(target RequisitionStatus) bool {
	switch s {
	case RequisitionStatusDraft:
		return target == RequisitionStatusSubmitted || target == RequisitionStatusCancelled
	case RequisitionStatusSubmitted:
		return target == RequisitionStatusApproved || target == RequisitionStatusRejected || target == RequisitionStatusCancelled
	case RequisitionStatusApproved, RequisitionStatusRejected, RequisitionStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true if no further transition is allowed from this status
func (s RequisitionStatus) IsTerminal() bool {
	switch s {
	case RequisitionStatusApproved, RequisitionStatusRejected, RequisitionStatusCancelled:
		return true
	}
	return false
}

// IsOpen returns true for statuses counted by the duplicate detection window
func (s RequisitionStatus) IsOpen() bool {
	return s == RequisitionStatusSubmitted || s == RequisitionStatusApproved
}

// Priority represents the urgency of a requisition
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid checks if the priority is a valid Priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RequisitionType represents what kind of purchase a requisition requests
type RequisitionType string

const (
	RequisitionTypeStock   RequisitionType = "STOCK"
	RequisitionTypeDirect  RequisitionType = "DIRECT"
	RequisitionTypeService RequisitionType = "SERVICE"
	RequisitionTypeAsset   RequisitionType = "ASSET"
)

// IsValid checks if the type is a valid RequisitionType
func (t RequisitionType) IsValid() bool {
	switch t {
	case RequisitionTypeStock, RequisitionTypeDirect, RequisitionTypeService, RequisitionTypeAsset:
		return true
	}
	return false
}

// LineItem represents a requested product or service line within a requisition
type LineItem struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primary_key"`
	RequisitionID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID            *uuid.UUID      `gorm:"type:uuid"` // Optional catalog reference
	Description          string          `gorm:"type:varchar(500);not null"`
	Quantity             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice            *decimal.Decimal `gorm:"type:decimal(18,4)"` // Optional quoted price
	EstimatedPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency             string          `gorm:"type:varchar(3);not null"`
	Unit                 string          `gorm:"type:varchar(20);not null"`
	Category             string          `gorm:"type:varchar(100);not null"`
	RequestedDate        time.Time       `gorm:"not null"`
	Notes                string          `gorm:"type:varchar(500)"`
	SuggestedSupplierIDs []uuid.UUID     `gorm:"-"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

// NewLineItem creates a new requisition line item
func NewLineItem(requisitionID uuid.UUID, description string, quantity, estimatedPrice decimal.Decimal, currency, unit, category string, requestedDate time.Time) (*LineItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if estimatedPrice.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRICE", "Item estimated price must be positive")
	}
	if category == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Item category cannot be empty")
	}
	if requestedDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Item requested delivery date is required")
	}
	if currency == "" {
		currency = string(valueobject.DefaultCurrency)
	}

	now := time.Now()
	return &LineItem{
		ID:             uuid.New(),
		RequisitionID:  requisitionID,
		Description:    description,
		Quantity:       quantity,
		EstimatedPrice: estimatedPrice,
		Currency:       currency,
		Unit:           unit,
		Category:       category,
		RequestedDate:  requestedDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// LineTotal returns estimated price multiplied by quantity
func (i *LineItem) LineTotal() decimal.Decimal {
	return i.EstimatedPrice.Mul(i.Quantity)
}

// Requisition represents a purchase requisition aggregate root.
// It owns its line items and approval records and drives the
// DRAFT -> SUBMITTED -> APPROVED/REJECTED lifecycle.
type Requisition struct {
	shared.BaseAggregateRoot
	RequisitionNumber  string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title              string            `gorm:"type:varchar(200);not null"`
	Description        string            `gorm:"type:text"`
	RequestorID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	DepartmentID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Priority           Priority          `gorm:"type:varchar(10);not null;default:'NORMAL'"`
	Type               RequisitionType   `gorm:"type:varchar(10);not null"`
	Status             RequisitionStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	TotalAmount        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"` // Sum of line totals
	Currency           string            `gorm:"type:varchar(3);not null"`
	RequiredByDate     time.Time         `gorm:"not null"`
	Justification      string            `gorm:"type:varchar(1000)"`
	WorkflowInstanceID string            `gorm:"type:varchar(100)"`
	Items              []LineItem        `gorm:"foreignKey:RequisitionID;references:ID"`
	Approvals          []ApprovalRecord  `gorm:"foreignKey:RequisitionID;references:ID"`
	SubmittedAt        *time.Time        `gorm:"index"`
	ApprovedAt         *time.Time
	RejectedAt         *time.Time
	CancelledAt        *time.Time
	CancelReason       string `gorm:"type:varchar(500)"`
}

// NewRequisition creates a new draft requisition. The requisition number is
// assigned by the repository when the aggregate is first persisted, so the
// allocation happens inside the same transaction as the insert.
func NewRequisition(requestorID, departmentID uuid.UUID, title string, priority Priority, reqType RequisitionType, requiredByDate time.Time) (*Requisition, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Requisition title cannot be empty")
	}
	if requestorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTOR", "Requestor ID cannot be empty")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Department ID cannot be empty")
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", fmt.Sprintf("Unknown priority %q", priority))
	}
	if !reqType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", fmt.Sprintf("Unknown requisition type %q", reqType))
	}

	return &Requisition{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		RequestorID:       requestorID,
		DepartmentID:      departmentID,
		Priority:          priority,
		Type:              reqType,
		Status:            RequisitionStatusDraft,
		TotalAmount:       decimal.Zero,
		Currency:          string(valueobject.DefaultCurrency),
		RequiredByDate:    requiredByDate,
		Items:             make([]LineItem, 0),
		Approvals:         make([]ApprovalRecord, 0),
	}, nil
}

// AddItem adds a line item and recalculates the total.
// Only allowed in DRAFT status.
func (r *Requisition) AddItem(item *LineItem) error {
	if r.Status != RequisitionStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft requisition")
	}
	item.RequisitionID = r.ID
	r.Items = append(r.Items, *item)
	r.recalculateTotal()
	r.UpdatedAt = time.Now()
	return nil
}

// AttachApprovalRecords attaches the approval records materialized from the
// configured approval rules. Records are fixed at creation time and only
// change status afterwards.
func (r *Requisition) AttachApprovalRecords(records []ApprovalRecord) {
	for i := range records {
		records[i].RequisitionID = r.ID
	}
	r.Approvals = append(r.Approvals, records...)
	r.UpdatedAt = time.Now()
}

// Submit transitions the requisition from DRAFT to SUBMITTED
func (r *Requisition) Submit(userID uuid.UUID) error {
	if !r.Status.CanTransitionTo(RequisitionStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit requisition in %s status", r.Status))
	}

	now := time.Now()
	r.Status = RequisitionStatusSubmitted
	r.SubmittedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRequisitionSubmittedEvent(r, userID))

	return nil
}

// ApplyApproval records a single approver's approval on their first pending
// record and promotes the requisition to APPROVED once every required record
// is approved. Returns true when the promotion happened in this call.
func (r *Requisition) ApplyApproval(approverID uuid.UUID, comments string) (bool, error) {
	if r.Status != RequisitionStatusSubmitted {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve requisition in %s status", r.Status))
	}

	record := r.pendingRecordFor(approverID)
	if record == nil {
		return false, shared.NewDomainError("NO_PENDING_APPROVAL", "Approver has no pending approval record for this requisition")
	}
	if err := record.Approve(comments); err != nil {
		return false, err
	}

	promoted := false
	if r.IsFullyApproved() {
		now := time.Now()
		r.Status = RequisitionStatusApproved
		r.ApprovedAt = &now
		promoted = true
	}

	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRequisitionApprovalRecordedEvent(r, approverID, record.Level, promoted))

	return promoted, nil
}

// ApplyRejection records a single approver's rejection on their first pending
// record and moves the requisition to REJECTED.
func (r *Requisition) ApplyRejection(approverID uuid.UUID, comments string) error {
	if r.Status != RequisitionStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject requisition in %s status", r.Status))
	}

	record := r.pendingRecordFor(approverID)
	if record == nil {
		return shared.NewDomainError("NO_PENDING_APPROVAL", "Approver has no pending approval record for this requisition")
	}
	if err := record.Reject(comments); err != nil {
		return err
	}

	now := time.Now()
	r.Status = RequisitionStatusRejected
	r.RejectedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRequisitionRejectedEvent(r, approverID, comments))

	return nil
}

// Cancel cancels the requisition.
// Allowed only in DRAFT or SUBMITTED status.
func (r *Requisition) Cancel(userID uuid.UUID, reason string) error {
	if !r.Status.CanTransitionTo(RequisitionStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel requisition in %s status", r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	r.Status = RequisitionStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRequisitionCancelledEvent(r, userID, reason))

	return nil
}

// SetWorkflowInstance records the external workflow handle started on submission
func (r *Requisition) SetWorkflowInstance(instanceID string) {
	r.WorkflowInstanceID = instanceID
	r.UpdatedAt = time.Now()
}

// IsFullyApproved returns true when every required approval record is approved
func (r *Requisition) IsFullyApproved() bool {
	required := 0
	approved := 0
	for i := range r.Approvals {
		if !r.Approvals[i].Required {
			continue
		}
		required++
		if r.Approvals[i].Status == ApprovalStatusApproved {
			approved++
		}
	}
	return approved == required
}

// pendingRecordFor returns the first pending approval record for the given
// approver, lowest level first.
func (r *Requisition) pendingRecordFor(approverID uuid.UUID) *ApprovalRecord {
	var found *ApprovalRecord
	for i := range r.Approvals {
		rec := &r.Approvals[i]
		if rec.ApproverID != approverID || rec.Status != ApprovalStatusPending {
			continue
		}
		if found == nil || rec.Level < found.Level {
			found = rec
		}
	}
	return found
}

// PendingApprovals returns all approval records still pending
func (r *Requisition) PendingApprovals() []ApprovalRecord {
	pending := make([]ApprovalRecord, 0)
	for _, rec := range r.Approvals {
		if rec.Status == ApprovalStatusPending {
			pending = append(pending, rec)
		}
	}
	return pending
}

// recalculateTotal recalculates the requisition total from line items
func (r *Requisition) recalculateTotal() {
	total := decimal.Zero
	for i := range r.Items {
		total = total.Add(r.Items[i].LineTotal())
	}
	r.TotalAmount = total
}

// GetTotalAmountMoney returns the total as a Money value object
func (r *Requisition) GetTotalAmountMoney() valueobject.Money {
	m, err := valueobject.NewMoney(r.TotalAmount, valueobject.Currency(r.Currency))
	if err != nil {
		return valueobject.NewMoneyUSD(r.TotalAmount)
	}
	return m
}

// ItemCount returns the number of line items
func (r *Requisition) ItemCount() int {
	return len(r.Items)
}

// IsDraft returns true if the requisition is in draft status
func (r *Requisition) IsDraft() bool {
	return r.Status == RequisitionStatusDraft
}

// IsSubmitted returns true if the requisition is awaiting approval
func (r *Requisition) IsSubmitted() bool {
	return r.Status == RequisitionStatusSubmitted
}

// IsTerminal returns true if the requisition is in a terminal state
func (r *Requisition) IsTerminal() bool {
	return r.Status.IsTerminal()
}

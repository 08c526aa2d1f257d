package procurement

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeRequisition = "Requisition"

// Event type constants
const (
	EventTypeRequisitionCreated          = "RequisitionCreated"
	EventTypeRequisitionSubmitted        = "RequisitionSubmitted"
	EventTypeRequisitionApprovalRecorded = "RequisitionApprovalRecorded"
	EventTypeRequisitionRejected         = "RequisitionRejected"
	EventTypeRequisitionCancelled        = "RequisitionCancelled"
	EventTypeRequisitionWorkflowFailed   = "RequisitionWorkflowStartFailed"
)

// RequisitionCreatedEvent is raised when a new requisition is created
type RequisitionCreatedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID       `json:"requisition_id"`
	RequisitionNumber string          `json:"requisition_number"`
	RequestorID       uuid.UUID       `json:"requestor_id"`
	DepartmentID      uuid.UUID       `json:"department_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ItemCount         int             `json:"item_count"`
	ApprovalCount     int             `json:"approval_count"`
}

// NewRequisitionCreatedEvent creates a new RequisitionCreatedEvent
func NewRequisitionCreatedEvent(r *Requisition) *RequisitionCreatedEvent {
	return &RequisitionCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionCreated, AggregateTypeRequisition, r.ID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		RequestorID:       r.RequestorID,
		DepartmentID:      r.DepartmentID,
		TotalAmount:       r.TotalAmount,
		ItemCount:         len(r.Items),
		ApprovalCount:     len(r.Approvals),
	}
}

// EventType returns the event type name
func (e *RequisitionCreatedEvent) EventType() string {
	return EventTypeRequisitionCreated
}

// RequisitionSubmittedEvent is raised when a requisition enters the approval flow
type RequisitionSubmittedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID       `json:"requisition_id"`
	RequisitionNumber string          `json:"requisition_number"`
	SubmittedBy       uuid.UUID       `json:"submitted_by"`
	DepartmentID      uuid.UUID       `json:"department_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PendingApprovals  int             `json:"pending_approvals"`
}

// NewRequisitionSubmittedEvent creates a new RequisitionSubmittedEvent
func NewRequisitionSubmittedEvent(r *Requisition, submittedBy uuid.UUID) *RequisitionSubmittedEvent {
	return &RequisitionSubmittedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionSubmitted, AggregateTypeRequisition, r.ID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		SubmittedBy:       submittedBy,
		DepartmentID:      r.DepartmentID,
		TotalAmount:       r.TotalAmount,
		PendingApprovals:  len(r.PendingApprovals()),
	}
}

// EventType returns the event type name
func (e *RequisitionSubmittedEvent) EventType() string {
	return EventTypeRequisitionSubmitted
}

// RequisitionApprovalRecordedEvent is raised when a single approver decides.
// ResultingStatus reports whether the approval completed the chain.
type RequisitionApprovalRecordedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID         `json:"requisition_id"`
	RequisitionNumber string            `json:"requisition_number"`
	ApproverID        uuid.UUID         `json:"approver_id"`
	Level             int               `json:"level"`
	Promoted          bool              `json:"promoted"`
	ResultingStatus   RequisitionStatus `json:"resulting_status"`
}

// NewRequisitionApprovalRecordedEvent creates a new RequisitionApprovalRecordedEvent
func NewRequisitionApprovalRecordedEvent(r *Requisition, approverID uuid.UUID, level int, promoted bool) *RequisitionApprovalRecordedEvent {
	return &RequisitionApprovalRecordedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionApprovalRecorded, AggregateTypeRequisition, r.ID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		ApproverID:        approverID,
		Level:             level,
		Promoted:          promoted,
		ResultingStatus:   r.Status,
	}
}

// EventType returns the event type name
func (e *RequisitionApprovalRecordedEvent) EventType() string {
	return EventTypeRequisitionApprovalRecorded
}

// RequisitionRejectedEvent is raised when an approver rejects the requisition
type RequisitionRejectedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID `json:"requisition_id"`
	RequisitionNumber string    `json:"requisition_number"`
	RejectedBy        uuid.UUID `json:"rejected_by"`
	Comments          string    `json:"comments,omitempty"`
}

// NewRequisitionRejectedEvent creates a new RequisitionRejectedEvent
func NewRequisitionRejectedEvent(r *Requisition, rejectedBy uuid.UUID, comments string) *RequisitionRejectedEvent {
	return &RequisitionRejectedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionRejected, AggregateTypeRequisition, r.ID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		RejectedBy:        rejectedBy,
		Comments:          comments,
	}
}

// EventType returns the event type name
func (e *RequisitionRejectedEvent) EventType() string {
	return EventTypeRequisitionRejected
}

// RequisitionCancelledEvent is raised when a requisition is cancelled
type RequisitionCancelledEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID `json:"requisition_id"`
	RequisitionNumber string    `json:"requisition_number"`
	CancelledBy       uuid.UUID `json:"cancelled_by"`
	Reason            string    `json:"reason"`
}

// NewRequisitionCancelledEvent creates a new RequisitionCancelledEvent
func NewRequisitionCancelledEvent(r *Requisition, cancelledBy uuid.UUID, reason string) *RequisitionCancelledEvent {
	return &RequisitionCancelledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionCancelled, AggregateTypeRequisition, r.ID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		CancelledBy:       cancelledBy,
		Reason:            reason,
	}
}

// EventType returns the event type name
func (e *RequisitionCancelledEvent) EventType() string {
	return EventTypeRequisitionCancelled
}

// RequisitionWorkflowFailedEvent is raised when the external workflow engine
// could not start an instance after submission. The submission itself has
// already committed; this event records the degradation.
type RequisitionWorkflowFailedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID `json:"requisition_id"`
	RequisitionNumber string    `json:"requisition_number"`
	Reason            string    `json:"reason"`
}

// NewRequisitionWorkflowFailedEvent creates a new RequisitionWorkflowFailedEvent
func NewRequisitionWorkflowFailedEvent(r *Requisition, reason string) *RequisitionWorkflowFailedEvent {
	return &RequisitionWorkflowFailedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionWorkflowFailed, AggregateTypeRequisition, r.ID),
		RequisitionID:     r.ID,
		RequisitionNumber: r.RequisitionNumber,
		Reason:            reason,
	}
}

// EventType returns the event type name
func (e *RequisitionWorkflowFailedEvent) EventType() string {
	return EventTypeRequisitionWorkflowFailed
}

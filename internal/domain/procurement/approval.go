package procurement

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// ApprovalStatus represents the status of one approver's vote
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// ApprovalRecord represents one approver's pending or decided vote in a
// requisition's approval chain. Records are materialized from approval rules
// at creation time and only their status, comments and timestamp mutate.
type ApprovalRecord struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key"`
	RequisitionID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ApproverID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Level         int            `gorm:"not null"` // Ascending = earlier in the chain
	Required      bool           `gorm:"not null"`
	Status        ApprovalStatus `gorm:"type:varchar(10);not null;default:'PENDING'"`
	Comments      string         `gorm:"type:varchar(500)"`
	ApprovedAt    *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// NewApprovalRecord creates a pending approval record
func NewApprovalRecord(requisitionID, approverID uuid.UUID, level int, required bool) (*ApprovalRecord, error) {
	if approverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}
	if level < 1 {
		return nil, shared.NewDomainError("INVALID_LEVEL", "Approval level must be at least 1")
	}

	now := time.Now()
	return &ApprovalRecord{
		ID:            uuid.New(),
		RequisitionID: requisitionID,
		ApproverID:    approverID,
		Level:         level,
		Required:      required,
		Status:        ApprovalStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Approve marks the record as approved with optional comments
func (a *ApprovalRecord) Approve(comments string) error {
	if a.Status != ApprovalStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Approval record has already been decided")
	}

	now := time.Now()
	a.Status = ApprovalStatusApproved
	a.Comments = comments
	a.ApprovedAt = &now
	a.UpdatedAt = now

	return nil
}

// Reject marks the record as rejected with optional comments
func (a *ApprovalRecord) Reject(comments string) error {
	if a.Status != ApprovalStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Approval record has already been decided")
	}

	a.Status = ApprovalStatusRejected
	a.Comments = comments
	a.UpdatedAt = time.Now()

	return nil
}

// IsPending returns true if the record has not been decided yet
func (a *ApprovalRecord) IsPending() bool {
	return a.Status == ApprovalStatusPending
}

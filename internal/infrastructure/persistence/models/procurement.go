package models

import (
	"encoding/json"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequisitionModel is the persistence model for the Requisition aggregate root.
type RequisitionModel struct {
	AggregateModel
	RequisitionNumber  string                          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title              string                          `gorm:"type:varchar(200);not null"`
	Description        string                          `gorm:"type:text"`
	RequestorID        uuid.UUID                       `gorm:"type:uuid;not null;index"`
	DepartmentID       uuid.UUID                       `gorm:"type:uuid;not null;index"`
	Priority           procurement.Priority            `gorm:"type:varchar(10);not null;default:'NORMAL'"`
	Type               procurement.RequisitionType     `gorm:"type:varchar(10);not null"`
	Status             procurement.RequisitionStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	TotalAmount        decimal.Decimal                 `gorm:"type:decimal(18,4);not null;default:0"`
	Currency           string                          `gorm:"type:varchar(3);not null"`
	RequiredByDate     time.Time                       `gorm:"not null"`
	Justification      string                          `gorm:"type:varchar(1000)"`
	WorkflowInstanceID string                          `gorm:"type:varchar(100)"`
	Items              []RequisitionLineItemModel      `gorm:"foreignKey:RequisitionID;references:ID"`
	Approvals          []RequisitionApprovalModel      `gorm:"foreignKey:RequisitionID;references:ID"`
	SubmittedAt        *time.Time                      `gorm:"index"`
	ApprovedAt         *time.Time
	RejectedAt         *time.Time
	CancelledAt        *time.Time
	CancelReason       string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (RequisitionModel) TableName() string {
	return "requisitions"
}

// ToDomain converts the persistence model to a domain Requisition entity.
func (m *RequisitionModel) ToDomain() *procurement.Requisition {
	r := &procurement.Requisition{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		RequisitionNumber:  m.RequisitionNumber,
		Title:              m.Title,
		Description:        m.Description,
		RequestorID:        m.RequestorID,
		DepartmentID:       m.DepartmentID,
		Priority:           m.Priority,
		Type:               m.Type,
		Status:             m.Status,
		TotalAmount:        m.TotalAmount,
		Currency:           m.Currency,
		RequiredByDate:     m.RequiredByDate,
		Justification:      m.Justification,
		WorkflowInstanceID: m.WorkflowInstanceID,
		SubmittedAt:        m.SubmittedAt,
		ApprovedAt:         m.ApprovedAt,
		RejectedAt:         m.RejectedAt,
		CancelledAt:        m.CancelledAt,
		CancelReason:       m.CancelReason,
		Items:              make([]procurement.LineItem, len(m.Items)),
		Approvals:          make([]procurement.ApprovalRecord, len(m.Approvals)),
	}
	for i := range m.Items {
		r.Items[i] = *m.Items[i].ToDomain()
	}
	for i := range m.Approvals {
		r.Approvals[i] = *m.Approvals[i].ToDomain()
	}
	return r
}

// FromDomain populates the persistence model from a domain Requisition entity.
func (m *RequisitionModel) FromDomain(r *procurement.Requisition) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.RequisitionNumber = r.RequisitionNumber
	m.Title = r.Title
	m.Description = r.Description
	m.RequestorID = r.RequestorID
	m.DepartmentID = r.DepartmentID
	m.Priority = r.Priority
	m.Type = r.Type
	m.Status = r.Status
	m.TotalAmount = r.TotalAmount
	m.Currency = r.Currency
	m.RequiredByDate = r.RequiredByDate
	m.Justification = r.Justification
	m.WorkflowInstanceID = r.WorkflowInstanceID
	m.SubmittedAt = r.SubmittedAt
	m.ApprovedAt = r.ApprovedAt
	m.RejectedAt = r.RejectedAt
	m.CancelledAt = r.CancelledAt
	m.CancelReason = r.CancelReason
	m.Items = make([]RequisitionLineItemModel, len(r.Items))
	for i := range r.Items {
		m.Items[i] = *RequisitionLineItemModelFromDomain(&r.Items[i])
	}
	m.Approvals = make([]RequisitionApprovalModel, len(r.Approvals))
	for i := range r.Approvals {
		m.Approvals[i] = *RequisitionApprovalModelFromDomain(&r.Approvals[i])
	}
}

// RequisitionModelFromDomain creates a new persistence model from a domain Requisition entity.
func RequisitionModelFromDomain(r *procurement.Requisition) *RequisitionModel {
	m := &RequisitionModel{}
	m.FromDomain(r)
	return m
}

// RequisitionLineItemModel is the persistence model for the LineItem entity.
// Suggested supplier IDs are stored as a JSON array in a text column.
type RequisitionLineItemModel struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primary_key"`
	RequisitionID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID            *uuid.UUID       `gorm:"type:uuid"`
	Description          string           `gorm:"type:varchar(500);not null"`
	Quantity             decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice            *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EstimatedPrice       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Currency             string           `gorm:"type:varchar(3);not null"`
	Unit                 string           `gorm:"type:varchar(20);not null"`
	Category             string           `gorm:"type:varchar(100);not null"`
	RequestedDate        time.Time        `gorm:"not null"`
	Notes                string           `gorm:"type:varchar(500)"`
	SuggestedSupplierIDs string           `gorm:"type:text"`
	CreatedAt            time.Time        `gorm:"not null"`
	UpdatedAt            time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RequisitionLineItemModel) TableName() string {
	return "requisition_items"
}

// ToDomain converts the persistence model to a domain LineItem entity.
func (m *RequisitionLineItemModel) ToDomain() *procurement.LineItem {
	item := &procurement.LineItem{
		ID:             m.ID,
		RequisitionID:  m.RequisitionID,
		ProductID:      m.ProductID,
		Description:    m.Description,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		EstimatedPrice: m.EstimatedPrice,
		Currency:       m.Currency,
		Unit:           m.Unit,
		Category:       m.Category,
		RequestedDate:  m.RequestedDate,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.SuggestedSupplierIDs != "" {
		// Malformed stored JSON degrades to no suggestions rather than failing the read.
		_ = json.Unmarshal([]byte(m.SuggestedSupplierIDs), &item.SuggestedSupplierIDs)
	}
	return item
}

// FromDomain populates the persistence model from a domain LineItem entity.
func (m *RequisitionLineItemModel) FromDomain(item *procurement.LineItem) {
	m.ID = item.ID
	m.RequisitionID = item.RequisitionID
	m.ProductID = item.ProductID
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.EstimatedPrice = item.EstimatedPrice
	m.Currency = item.Currency
	m.Unit = item.Unit
	m.Category = item.Category
	m.RequestedDate = item.RequestedDate
	m.Notes = item.Notes
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
	if len(item.SuggestedSupplierIDs) > 0 {
		if data, err := json.Marshal(item.SuggestedSupplierIDs); err == nil {
			m.SuggestedSupplierIDs = string(data)
		}
	} else {
		m.SuggestedSupplierIDs = ""
	}
}

// RequisitionLineItemModelFromDomain creates a new persistence model from a domain LineItem entity.
func RequisitionLineItemModelFromDomain(item *procurement.LineItem) *RequisitionLineItemModel {
	m := &RequisitionLineItemModel{}
	m.FromDomain(item)
	return m
}

// RequisitionApprovalModel is the persistence model for the ApprovalRecord entity.
type RequisitionApprovalModel struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primary_key"`
	RequisitionID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	ApproverID    uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Level         int                        `gorm:"not null"`
	Required      bool                       `gorm:"not null"`
	Status        procurement.ApprovalStatus `gorm:"type:varchar(10);not null;default:'PENDING'"`
	Comments      string                     `gorm:"type:varchar(500)"`
	ApprovedAt    *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RequisitionApprovalModel) TableName() string {
	return "requisition_approvals"
}

// ToDomain converts the persistence model to a domain ApprovalRecord entity.
func (m *RequisitionApprovalModel) ToDomain() *procurement.ApprovalRecord {
	return &procurement.ApprovalRecord{
		ID:            m.ID,
		RequisitionID: m.RequisitionID,
		ApproverID:    m.ApproverID,
		Level:         m.Level,
		Required:      m.Required,
		Status:        m.Status,
		Comments:      m.Comments,
		ApprovedAt:    m.ApprovedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ApprovalRecord entity.
func (m *RequisitionApprovalModel) FromDomain(record *procurement.ApprovalRecord) {
	m.ID = record.ID
	m.RequisitionID = record.RequisitionID
	m.ApproverID = record.ApproverID
	m.Level = record.Level
	m.Required = record.Required
	m.Status = record.Status
	m.Comments = record.Comments
	m.ApprovedAt = record.ApprovedAt
	m.CreatedAt = record.CreatedAt
	m.UpdatedAt = record.UpdatedAt
}

// RequisitionApprovalModelFromDomain creates a new persistence model from a domain ApprovalRecord entity.
func RequisitionApprovalModelFromDomain(record *procurement.ApprovalRecord) *RequisitionApprovalModel {
	m := &RequisitionApprovalModel{}
	m.FromDomain(record)
	return m
}

// RequisitionSequenceModel is the per-year counter backing requisition number
// allocation. Incremented atomically inside the creation transaction.
type RequisitionSequenceModel struct {
	Year  int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RequisitionSequenceModel) TableName() string {
	return "requisition_sequences"
}

// AuditLogModel is the persistence model for audit trail entries.
type AuditLogModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action     string    `gorm:"type:varchar(100);not null;index"`
	EntityType string    `gorm:"type:varchar(100);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Details    []byte    `gorm:"type:jsonb"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// AuditLogModelFromEntry creates a persistence model from an audit entry.
func AuditLogModelFromEntry(entry shared.AuditEntry) (*AuditLogModel, error) {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return nil, err
	}
	return &AuditLogModel{
		ID:         uuid.New(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		ActorID:    entry.ActorID,
		Details:    details,
		CreatedAt:  time.Now(),
	}, nil
}

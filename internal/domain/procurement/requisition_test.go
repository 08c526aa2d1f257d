package procurement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers for Requisition
func createTestRequisition(t *testing.T) *Requisition {
	requestorID := uuid.New()
	departmentID := uuid.New()
	requiredBy := time.Now().AddDate(0, 1, 0)
	r, err := NewRequisition(requestorID, departmentID, "Office laptops", PriorityNormal, RequisitionTypeDirect, requiredBy)
	require.NoError(t, err)
	return r
}

func addTestItem(t *testing.T, r *Requisition, description string, quantity, price float64) *LineItem {
	item, err := NewLineItem(r.ID, description, decimal.NewFromFloat(quantity), decimal.NewFromFloat(price), "USD", "pcs", "IT_EQUIPMENT", time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	require.NoError(t, r.AddItem(item))
	return item
}

func attachTestApproval(t *testing.T, r *Requisition, approverID uuid.UUID, level int, required bool) {
	record, err := NewApprovalRecord(r.ID, approverID, level, required)
	require.NoError(t, err)
	r.AttachApprovalRecords([]ApprovalRecord{*record})
}

// ============================================
// RequisitionStatus Tests
// ============================================

func TestRequisitionStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  RequisitionStatus
		isValid bool
	}{
		{RequisitionStatusDraft, true},
		{RequisitionStatusSubmitted, true},
		{RequisitionStatusApproved, true},
		{RequisitionStatusRejected, true},
		{RequisitionStatusCancelled, true},
		{RequisitionStatus("INVALID"), false},
		{RequisitionStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestRequisitionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     RequisitionStatus
		to       RequisitionStatus
		canTrans bool
	}{
		// From DRAFT
		{RequisitionStatusDraft, RequisitionStatusSubmitted, true},
		{RequisitionStatusDraft, RequisitionStatusCancelled, true},
		{RequisitionStatusDraft, RequisitionStatusApproved, false},
		{RequisitionStatusDraft, RequisitionStatusRejected, false},
		// From SUBMITTED
		{RequisitionStatusSubmitted, RequisitionStatusApproved, true},
		{RequisitionStatusSubmitted, RequisitionStatusRejected, true},
		{RequisitionStatusSubmitted, RequisitionStatusCancelled, true},
		{RequisitionStatusSubmitted, RequisitionStatusDraft, false},
		// From APPROVED (terminal)
		{RequisitionStatusApproved, RequisitionStatusSubmitted, false},
		{RequisitionStatusApproved, RequisitionStatusCancelled, false},
		// From REJECTED (terminal)
		{RequisitionStatusRejected, RequisitionStatusSubmitted, false},
		{RequisitionStatusRejected, RequisitionStatusCancelled, false},
		// From CANCELLED (terminal)
		{RequisitionStatusCancelled, RequisitionStatusDraft, false},
		{RequisitionStatusCancelled, RequisitionStatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRequisitionStatus_IsTerminal(t *testing.T) {
	assert.False(t, RequisitionStatusDraft.IsTerminal())
	assert.False(t, RequisitionStatusSubmitted.IsTerminal())
	assert.True(t, RequisitionStatusApproved.IsTerminal())
	assert.True(t, RequisitionStatusRejected.IsTerminal())
	assert.True(t, RequisitionStatusCancelled.IsTerminal())
}

// ============================================
// Requisition Creation Tests
// ============================================

func TestNewRequisition(t *testing.T) {
	r := createTestRequisition(t)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, RequisitionStatusDraft, r.Status)
	assert.Equal(t, PriorityNormal, r.Priority)
	assert.True(t, r.TotalAmount.IsZero())
	assert.Empty(t, r.RequisitionNumber) // Assigned on first persist
	assert.Empty(t, r.Items)
	assert.Empty(t, r.Approvals)
}

func TestNewRequisition_Validation(t *testing.T) {
	requiredBy := time.Now().AddDate(0, 1, 0)

	_, err := NewRequisition(uuid.Nil, uuid.New(), "Title", PriorityNormal, RequisitionTypeDirect, requiredBy)
	assert.Error(t, err)

	_, err = NewRequisition(uuid.New(), uuid.Nil, "Title", PriorityNormal, RequisitionTypeDirect, requiredBy)
	assert.Error(t, err)

	_, err = NewRequisition(uuid.New(), uuid.New(), "", PriorityNormal, RequisitionTypeDirect, requiredBy)
	assert.Error(t, err)

	_, err = NewRequisition(uuid.New(), uuid.New(), "Title", Priority("EXTREME"), RequisitionTypeDirect, requiredBy)
	assert.Error(t, err)

	_, err = NewRequisition(uuid.New(), uuid.New(), "Title", PriorityNormal, RequisitionType("OTHER"), requiredBy)
	assert.Error(t, err)
}

func TestNewRequisition_DefaultPriority(t *testing.T) {
	r, err := NewRequisition(uuid.New(), uuid.New(), "Title", "", RequisitionTypeStock, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, r.Priority)
}

// ============================================
// Line Item Tests
// ============================================

func TestRequisition_AddItem_RecalculatesTotal(t *testing.T) {
	r := createTestRequisition(t)

	addTestItem(t, r, "Laptop", 10, 25)
	addTestItem(t, r, "Docking station", 5, 60)

	// 10*25 + 5*60 = 550
	assert.True(t, r.TotalAmount.Equal(decimal.NewFromInt(550)), "expected 550, got %s", r.TotalAmount)
	assert.Equal(t, 2, r.ItemCount())
}

func TestRequisition_AddItem_NonDraft(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	require.NoError(t, r.Submit(r.RequestorID))

	item, err := NewLineItem(r.ID, "Mouse", decimal.NewFromInt(1), decimal.NewFromInt(10), "USD", "pcs", "IT_EQUIPMENT", time.Now().AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Error(t, r.AddItem(item))
}

func TestNewLineItem_Validation(t *testing.T) {
	future := time.Now().AddDate(0, 0, 7)

	_, err := NewLineItem(uuid.New(), "", decimal.NewFromInt(1), decimal.NewFromInt(10), "USD", "pcs", "CAT", future)
	assert.Error(t, err)

	_, err = NewLineItem(uuid.New(), "Item", decimal.Zero, decimal.NewFromInt(10), "USD", "pcs", "CAT", future)
	assert.Error(t, err)

	_, err = NewLineItem(uuid.New(), "Item", decimal.NewFromInt(1), decimal.NewFromInt(-5), "USD", "pcs", "CAT", future)
	assert.Error(t, err)

	_, err = NewLineItem(uuid.New(), "Item", decimal.NewFromInt(1), decimal.NewFromInt(10), "USD", "pcs", "", future)
	assert.Error(t, err)

	_, err = NewLineItem(uuid.New(), "Item", decimal.NewFromInt(1), decimal.NewFromInt(10), "USD", "pcs", "CAT", time.Time{})
	assert.Error(t, err)
}

func TestLineItem_LineTotal(t *testing.T) {
	item, err := NewLineItem(uuid.New(), "Cable", decimal.NewFromFloat(2.5), decimal.NewFromFloat(4.2), "USD", "m", "SUPPLIES", time.Now().AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.True(t, item.LineTotal().Equal(decimal.NewFromFloat(10.5)))
}

// ============================================
// Submit Tests
// ============================================

func TestRequisition_Submit(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 2, 1200)
	versionBefore := r.Version

	err := r.Submit(r.RequestorID)
	require.NoError(t, err)

	assert.Equal(t, RequisitionStatusSubmitted, r.Status)
	assert.NotNil(t, r.SubmittedAt)
	assert.Equal(t, versionBefore+1, r.Version)

	events := r.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeRequisitionSubmitted, events[0].EventType())
}

func TestRequisition_Submit_InvalidState(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	require.NoError(t, r.Submit(r.RequestorID))

	err := r.Submit(r.RequestorID)
	assert.Error(t, err)
	assert.Equal(t, RequisitionStatusSubmitted, r.Status)
}

// ============================================
// Approval Tests
// ============================================

func TestRequisition_ApplyApproval_SingleApprover(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 2, 1200)
	approver := uuid.New()
	attachTestApproval(t, r, approver, 1, true)
	require.NoError(t, r.Submit(r.RequestorID))
	r.ClearDomainEvents()

	promoted, err := r.ApplyApproval(approver, "looks good")
	require.NoError(t, err)

	assert.True(t, promoted)
	assert.Equal(t, RequisitionStatusApproved, r.Status)
	assert.NotNil(t, r.ApprovedAt)
	require.Len(t, r.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeRequisitionApprovalRecorded, r.GetDomainEvents()[0].EventType())
}

func TestRequisition_ApplyApproval_MultiLevel(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Servers", 2, 4000)
	manager := uuid.New()
	director := uuid.New()
	attachTestApproval(t, r, manager, 1, true)
	attachTestApproval(t, r, director, 2, true)
	require.NoError(t, r.Submit(r.RequestorID))

	promoted, err := r.ApplyApproval(manager, "")
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.Equal(t, RequisitionStatusSubmitted, r.Status)
	assert.Len(t, r.PendingApprovals(), 1)

	promoted, err = r.ApplyApproval(director, "within budget")
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.Equal(t, RequisitionStatusApproved, r.Status)
	assert.Empty(t, r.PendingApprovals())
}

func TestRequisition_ApplyApproval_OptionalRecordDoesNotBlock(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Chairs", 10, 80)
	manager := uuid.New()
	observer := uuid.New()
	attachTestApproval(t, r, manager, 1, true)
	attachTestApproval(t, r, observer, 1, false)
	require.NoError(t, r.Submit(r.RequestorID))

	promoted, err := r.ApplyApproval(manager, "")
	require.NoError(t, err)

	// The optional record is still pending, but all required records approved.
	assert.True(t, promoted)
	assert.Equal(t, RequisitionStatusApproved, r.Status)
	assert.Len(t, r.PendingApprovals(), 1)
}

func TestRequisition_ApplyApproval_NoPendingRecord(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	attachTestApproval(t, r, uuid.New(), 1, true)
	require.NoError(t, r.Submit(r.RequestorID))

	_, err := r.ApplyApproval(uuid.New(), "")
	assert.Error(t, err)
	assert.Equal(t, RequisitionStatusSubmitted, r.Status)
}

func TestRequisition_ApplyApproval_SameApproverTwice(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	approver := uuid.New()
	director := uuid.New()
	attachTestApproval(t, r, approver, 1, true)
	attachTestApproval(t, r, director, 2, true)
	require.NoError(t, r.Submit(r.RequestorID))

	_, err := r.ApplyApproval(approver, "")
	require.NoError(t, err)

	_, err = r.ApplyApproval(approver, "again")
	assert.Error(t, err)
}

func TestRequisition_ApplyApproval_LowestLevelFirst(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	approver := uuid.New()
	// Same approver sits at two levels (two rules matched).
	attachTestApproval(t, r, approver, 2, true)
	attachTestApproval(t, r, approver, 1, true)
	require.NoError(t, r.Submit(r.RequestorID))

	promoted, err := r.ApplyApproval(approver, "")
	require.NoError(t, err)
	assert.False(t, promoted)

	// The level-1 record decided first.
	for _, rec := range r.Approvals {
		if rec.Level == 1 {
			assert.Equal(t, ApprovalStatusApproved, rec.Status)
		} else {
			assert.Equal(t, ApprovalStatusPending, rec.Status)
		}
	}
}

func TestRequisition_ApplyApproval_InvalidState(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	approver := uuid.New()
	attachTestApproval(t, r, approver, 1, true)

	// Still DRAFT
	_, err := r.ApplyApproval(approver, "")
	assert.Error(t, err)
}

func TestRequisition_IsFullyApproved_NoRecords(t *testing.T) {
	r := createTestRequisition(t)
	// No approval records means nothing blocks promotion.
	assert.True(t, r.IsFullyApproved())
}

// ============================================
// Rejection Tests
// ============================================

func TestRequisition_ApplyRejection(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	approver := uuid.New()
	other := uuid.New()
	attachTestApproval(t, r, approver, 1, true)
	attachTestApproval(t, r, other, 2, true)
	require.NoError(t, r.Submit(r.RequestorID))
	r.ClearDomainEvents()

	err := r.ApplyRejection(approver, "over budget")
	require.NoError(t, err)

	assert.Equal(t, RequisitionStatusRejected, r.Status)
	assert.NotNil(t, r.RejectedAt)
	require.Len(t, r.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeRequisitionRejected, r.GetDomainEvents()[0].EventType())

	// A single rejection is final; the other record stays pending.
	_, err = r.ApplyApproval(other, "")
	assert.Error(t, err)
}

func TestRequisition_ApplyRejection_NoPendingRecord(t *testing.T) {
	r := createTestRequisition(t)
	addTestItem(t, r, "Laptop", 1, 100)
	attachTestApproval(t, r, uuid.New(), 1, true)
	require.NoError(t, r.Submit(r.RequestorID))

	err := r.ApplyRejection(uuid.New(), "not mine")
	assert.Error(t, err)
	assert.Equal(t, RequisitionStatusSubmitted, r.Status)
}

// ============================================
// Cancel Tests
// ============================================

func TestRequisition_Cancel(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, r *Requisition)
		wantOK bool
	}{
		{
			name:   "draft can be cancelled",
			setup:  func(t *testing.T, r *Requisition) {},
			wantOK: true,
		},
		{
			name: "submitted can be cancelled",
			setup: func(t *testing.T, r *Requisition) {
				require.NoError(t, r.Submit(r.RequestorID))
			},
			wantOK: true,
		},
		{
			name: "approved cannot be cancelled",
			setup: func(t *testing.T, r *Requisition) {
				approver := uuid.New()
				attachTestApproval(t, r, approver, 1, true)
				require.NoError(t, r.Submit(r.RequestorID))
				_, err := r.ApplyApproval(approver, "")
				require.NoError(t, err)
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := createTestRequisition(t)
			addTestItem(t, r, "Laptop", 1, 100)
			tt.setup(t, r)

			err := r.Cancel(r.RequestorID, "no longer needed")
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, RequisitionStatusCancelled, r.Status)
				assert.NotNil(t, r.CancelledAt)
				assert.Equal(t, "no longer needed", r.CancelReason)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRequisition_Cancel_RequiresReason(t *testing.T) {
	r := createTestRequisition(t)
	err := r.Cancel(r.RequestorID, "")
	assert.Error(t, err)
	assert.Equal(t, RequisitionStatusDraft, r.Status)
}

// ============================================
// ApprovalRecord Tests
// ============================================

func TestNewApprovalRecord_Validation(t *testing.T) {
	_, err := NewApprovalRecord(uuid.New(), uuid.Nil, 1, true)
	assert.Error(t, err)

	_, err = NewApprovalRecord(uuid.New(), uuid.New(), 0, true)
	assert.Error(t, err)
}

func TestApprovalRecord_ApproveAndReject(t *testing.T) {
	record, err := NewApprovalRecord(uuid.New(), uuid.New(), 1, true)
	require.NoError(t, err)
	assert.True(t, record.IsPending())

	require.NoError(t, record.Approve("fine"))
	assert.Equal(t, ApprovalStatusApproved, record.Status)
	assert.NotNil(t, record.ApprovedAt)

	// Already decided
	assert.Error(t, record.Approve("again"))
	assert.Error(t, record.Reject("changed my mind"))
}

func TestApprovalRecord_Reject(t *testing.T) {
	record, err := NewApprovalRecord(uuid.New(), uuid.New(), 2, false)
	require.NoError(t, err)

	require.NoError(t, record.Reject("too expensive"))
	assert.Equal(t, ApprovalStatusRejected, record.Status)
	assert.Equal(t, "too expensive", record.Comments)
	assert.Nil(t, record.ApprovedAt)
}

// ============================================
// Workflow Instance Tests
// ============================================

func TestRequisition_SetWorkflowInstance(t *testing.T) {
	r := createTestRequisition(t)
	r.SetWorkflowInstance("wf-instance-42")
	assert.Equal(t, "wf-instance-42", r.WorkflowInstanceID)
}

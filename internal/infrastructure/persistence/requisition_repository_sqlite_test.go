package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteRepository builds a repository over an in-memory SQLite database.
// The pool is capped at one connection so every caller shares the same
// in-memory database and transactions serialize instead of hitting
// SQLITE_BUSY.
func newSQLiteRepository(t *testing.T) *GormRequisitionRepository {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate())

	return NewGormRequisitionRepository(db.DB)
}

func newDraftForCreate(t *testing.T, approvers ...uuid.UUID) *procurement.Requisition {
	t.Helper()

	r, err := procurement.NewRequisition(uuid.New(), uuid.New(), "Warehouse shelving", procurement.PriorityNormal, procurement.RequisitionTypeStock, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	item, err := procurement.NewLineItem(r.ID, "Shelving unit", decimal.NewFromInt(4), decimal.NewFromInt(350), "USD", "pcs", "FACILITIES", time.Now().AddDate(0, 0, 21))
	require.NoError(t, err)
	require.NoError(t, r.AddItem(item))

	records := make([]procurement.ApprovalRecord, 0, len(approvers))
	for i, approverID := range approvers {
		record, err := procurement.NewApprovalRecord(r.ID, approverID, i+1, true)
		require.NoError(t, err)
		records = append(records, *record)
	}
	r.AttachApprovalRecords(records)
	return r
}

func TestGormRequisitionRepository_ConcurrentCreatesAllocateDistinctNumbers(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	const n = 10
	requisitions := make([]*procurement.Requisition, n)
	for i := range requisitions {
		requisitions[i] = newDraftForCreate(t)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, requisitions[i])
		}(i)
	}
	wg.Wait()

	numbers := make([]string, 0, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		numbers = append(numbers, requisitions[i].RequisitionNumber)
	}

	// Every creator got its own number, and together they form the dense,
	// strictly increasing sequence 001..010 for the current year.
	sort.Strings(numbers)
	year := time.Now().Year()
	for i, number := range numbers {
		assert.Equal(t, fmt.Sprintf("REQ-%d-%03d", year, i+1), number)
	}
}

func TestGormRequisitionRepository_SubmitApproveLifecycle(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	approverID := uuid.New()

	created := newDraftForCreate(t, approverID)
	require.NoError(t, repo.Create(ctx, created))

	loaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, procurement.RequisitionStatusDraft, loaded.Status)
	require.Len(t, loaded.Approvals, 1)

	require.NoError(t, loaded.Submit(loaded.RequestorID))
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	submitted, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, procurement.RequisitionStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	promoted, err := submitted.ApplyApproval(approverID, "fits the budget")
	require.NoError(t, err)
	require.True(t, promoted)
	require.NoError(t, repo.SaveWithLock(ctx, submitted))

	final, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, procurement.RequisitionStatusApproved, final.Status)
	assert.NotNil(t, final.ApprovedAt)
	assert.Equal(t, 3, final.Version)

	byNumber, err := repo.FindByNumber(ctx, created.RequisitionNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)
}

func TestGormRequisitionRepository_SaveWithLock_StaleVersionConflicts(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	created := newDraftForCreate(t)
	require.NoError(t, repo.Create(ctx, created))

	first, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, first.Submit(first.RequestorID))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	// The second copy still carries the pre-submit version; its save must
	// not clobber the committed transition.
	require.NoError(t, second.Cancel(second.RequestorID, "duplicate request"))
	err = repo.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

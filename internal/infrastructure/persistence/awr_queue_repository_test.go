package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/domain/shared"
	"github.com/awr/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedQueueData(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	testutil.SeedRequest(t, db, "AWR-20260106-0001", "RM", "alice",
		testutil.SeedItem{Material: "Paracetamol", BatchNo: "P1", CrossReference: "AR-1", Status: "PendingIssuance"},
		testutil.SeedItem{Material: "Ibuprofen", BatchNo: "I1", CrossReference: "AR-2", Status: "Issued"},
	)
	testutil.SeedRequest(t, db, "AWR-20260106-0002", "WATER", "bob",
		testutil.SeedItem{Material: "Purified water", BatchNo: "W1", CrossReference: "AR-3", Status: "Issued"},
		testutil.SeedItem{Material: "Purified water", BatchNo: "W2", CrossReference: "AR-4", Status: "InUse"},
		testutil.SeedItem{Material: "Purified water", BatchNo: "W3", CrossReference: "AR-5", Status: "Returned"},
	)
	testutil.SeedRequest(t, db, "AWR-20260106-0003", "RM", "alice",
		testutil.SeedItem{Material: "Aspirin", BatchNo: "A1", CrossReference: "AR-6", Status: "RejectedByQa"},
	)
	return db
}

func itemStatuses(entries []issuance.QueueEntry) []issuance.ItemStatus {
	out := make([]issuance.ItemStatus, len(entries))
	for i, e := range entries {
		out[i] = e.Status
	}
	return out
}

func TestGormQueueRepository_FindByStatuses(t *testing.T) {
	repo := NewGormQueueRepository(seedQueueData(t))
	ctx := context.Background()

	t.Run("issuance queue spans all preparers", func(t *testing.T) {
		got, err := repo.FindByStatuses(ctx, issuance.IssuanceQueueStatuses, "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Paracetamol", got[0].MaterialOrProduct)
		assert.Equal(t, "AWR-20260106-0001", got[0].RequestNo)
	})

	t.Run("receipt queue is limited to the preparer", func(t *testing.T) {
		got, err := repo.FindByStatuses(ctx, issuance.ReceiptQueueStatuses, "bob")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "W1", got[0].BatchNo)
	})

	t.Run("return queue includes legacy codes", func(t *testing.T) {
		got, err := repo.FindByStatuses(ctx, issuance.ReturnQueueStatuses, "bob")
		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]issuance.ItemStatus{issuance.StatusReceived, issuance.StatusVoided},
			itemStatuses(got),
		)
	})

	t.Run("no statuses returns empty", func(t *testing.T) {
		got, err := repo.FindByStatuses(ctx, nil, "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGormQueueRepository_FindSubmittedBy(t *testing.T) {
	repo := NewGormQueueRepository(seedQueueData(t))

	got, err := repo.FindSubmittedBy(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, e := range got {
		assert.Equal(t, "alice", e.PreparedBy)
	}

	none, err := repo.FindSubmittedBy(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormQueueRepository_FindAudit(t *testing.T) {
	repo := NewGormQueueRepository(seedQueueData(t))
	ctx := context.Background()

	t.Run("pages with total count", func(t *testing.T) {
		filter := issuance.AuditFilter{Filter: shared.Filter{Page: 2, PageSize: 2, OrderBy: "request_no", OrderDir: "asc"}}
		got, total, err := repo.FindAudit(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		require.Len(t, got, 2)
		assert.Equal(t, "AWR-20260106-0002", got[0].RequestNo)
		assert.Equal(t, "W1", got[0].BatchNo)
	})

	t.Run("filters by status and type", func(t *testing.T) {
		filter := issuance.AuditFilter{
			Filter:   shared.DefaultFilter(),
			Statuses: []issuance.ItemStatus{issuance.StatusIssued},
			Type:     issuance.AwrTypeWater,
		}
		got, total, err := repo.FindAudit(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, issuance.AwrTypeWater, got[0].Type)
	})

	t.Run("free-text search is case-insensitive", func(t *testing.T) {
		filter := issuance.AuditFilter{Filter: shared.Filter{Search: "ASPIRIN"}}
		got, total, err := repo.FindAudit(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, issuance.StatusRejectedByQa, got[0].Status)
	})

	t.Run("date range excludes everything in the future", func(t *testing.T) {
		from := time.Now().UTC().Add(time.Hour)
		got, total, err := repo.FindAudit(ctx, issuance.AuditFilter{From: &from})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, got)
	})

	t.Run("unknown sort column falls back to requested_at", func(t *testing.T) {
		filter := issuance.AuditFilter{Filter: shared.Filter{OrderBy: "id; DROP TABLE awr_items"}}
		_, total, err := repo.FindAudit(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
	})
}

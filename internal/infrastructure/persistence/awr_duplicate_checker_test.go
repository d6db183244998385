package persistence

import (
	"context"
	"testing"

	"github.com/awr/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDuplicateReferenceChecker_FindDuplicates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	checker := NewGormDuplicateReferenceChecker(db)

	activeID, _ := testutil.SeedRequest(t, db, "AWR-20260105-0001", "RM", "alice",
		testutil.SeedItem{Material: "M1", BatchNo: "B1", CrossReference: "AR-1, AR-2", Status: "PendingIssuance"},
		testutil.SeedItem{Material: "M2", BatchNo: "B2", CrossReference: "ar-3;AR-10", Status: "Issued"},
	)
	testutil.SeedRequest(t, db, "AWR-20260105-0002", "FPS", "bob",
		testutil.SeedItem{Material: "M3", BatchNo: "B3", CrossReference: "AR-1\nAR-50", Status: "InUse"},
	)
	testutil.SeedRequest(t, db, "AWR-20260105-0003", "FPS", "bob",
		testutil.SeedItem{Material: "M4", BatchNo: "B4", CrossReference: "AR-2 AR-99", Status: "Voided"},
		testutil.SeedItem{Material: "M5", BatchNo: "B5", CrossReference: "AR-99", Status: "RejectedByQa"},
	)
	ctx := context.Background()

	t.Run("reports each collision with display status", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, "AR-1", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"reference 'AR-1' found in AWR-20260105-0001 [Pending Approval]",
			"reference 'AR-1' found in AWR-20260105-0002 [Completed]",
		}, got)
	})

	t.Run("matches case-insensitively and reports the token as typed", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, " Ar-3 ", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"reference 'Ar-3' found in AWR-20260105-0001 [Approved]"}, got)
	})

	t.Run("does not match substrings", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, "AR-5, R-1", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ignores terminal items", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, "AR-99", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("excludes the given request", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, "AR-1;AR-2", &activeID)
		require.NoError(t, err)
		assert.Equal(t, []string{"reference 'AR-1' found in AWR-20260105-0002 [Completed]"}, got)
	})

	t.Run("repeated input tokens are reported once", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, "AR-10,ar-10,AR-10", nil)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("wildcards in input match literally", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, "AR-%", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("blank input returns empty", func(t *testing.T) {
		got, err := checker.FindDuplicates(ctx, " ,; \r\n", nil)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

package issuance

import (
	"testing"
	"time"

	"github.com/awr/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRules(t *testing.T) {
	tests := []struct {
		action Action
		from   ItemStatus
		to     ItemStatus
	}{
		{ActionIssue, StatusPendingIssuance, StatusIssued},
		{ActionReceive, StatusIssued, StatusReceived},
		{ActionVoid, StatusIssued, StatusVoided},
		{ActionReject, StatusPendingIssuance, StatusRejectedByQa},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.from, tt.action.From())
			assert.Equal(t, tt.to, tt.action.To())
		})
	}

	assert.True(t, ActionIssue.RequiresApprover())
	assert.True(t, ActionReject.RequiresApprover())
	assert.False(t, ActionReceive.RequiresApprover())
	assert.False(t, ActionVoid.RequiresApprover())
}

func TestNewIssueTransition(t *testing.T) {
	at := time.Now()

	tr, err := NewIssueTransition(decimal.NewFromInt(5), "qa1", at)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingIssuance, tr.From)
	assert.Equal(t, StatusIssued, tr.To)
	assert.Equal(t, "qa1", tr.Actor)
	assert.True(t, tr.QtyIssued.Equal(decimal.NewFromInt(5)))

	_, err = NewIssueTransition(decimal.Zero, "qa1", at)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	_, err = NewIssueTransition(decimal.NewFromInt(1), "", at)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
}

func TestNewVoidTransition(t *testing.T) {
	tr, err := NewVoidTransition("bob", "  wrong batch  ", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "wrong batch", tr.Remark)
	assert.Equal(t, StatusVoided, tr.To)

	_, err = NewVoidTransition("bob", "   ", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remark is required")
}

func TestNewRejectTransition(t *testing.T) {
	tr, err := NewRejectTransition("qa1", "template outdated", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "template outdated", tr.Remark)
	assert.Equal(t, StatusRejectedByQa, tr.To)

	_, err = NewRejectTransition("qa1", "", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment is required")
}

func TestNewReceiveTransition(t *testing.T) {
	tr, err := NewReceiveTransition("qc1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, tr.From)
	assert.Equal(t, StatusReceived, tr.To)
}

func TestNewConflictError(t *testing.T) {
	err := NewConflictError(42, ActionVoid, StatusPendingIssuance)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, "cannot void item 42: current status is PendingIssuance", err.Error())
}

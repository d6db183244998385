package issuance

import (
	"testing"
	"time"

	"github.com/awr/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequestParams() NewRequestParams {
	return NewRequestParams{
		Type:              AwrTypeMicro,
		DocumentReference: "MIC-AWR-001",
		Comment:           "routine release",
		PreparedBy:        "alice",
		Items: []NewItemParams{
			{
				MaterialOrProduct: "Paracetamol 500mg",
				BatchNo:           "B-1001",
				CrossReference:    "AR-9",
				QtyRequired:       decimal.NewFromInt(3),
			},
		},
	}
}

func TestNewRequest(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	t.Run("creates pending request", func(t *testing.T) {
		req, err := NewRequest(validRequestParams(), at)

		require.NoError(t, err)
		assert.Empty(t, req.RequestNo)
		assert.Equal(t, StatusPendingIssuance, req.CurrentStatus)
		assert.Equal(t, at, req.RequestedAt)
		require.Len(t, req.Items, 1)
		assert.Equal(t, StatusPendingIssuance, req.Items[0].Status)
		assert.True(t, req.Items[0].QtyRequired.Equal(decimal.NewFromInt(3)))
	})

	tests := []struct {
		name   string
		mutate func(p *NewRequestParams)
		msg    string
	}{
		{"invalid type", func(p *NewRequestParams) { p.Type = "BOGUS" }, "invalid AWR type"},
		{"missing document reference", func(p *NewRequestParams) { p.DocumentReference = " " }, "document reference"},
		{"missing submitter", func(p *NewRequestParams) { p.PreparedBy = "" }, "submitter"},
		{"no items", func(p *NewRequestParams) { p.Items = nil }, "at least one item"},
		{"missing material", func(p *NewRequestParams) { p.Items[0].MaterialOrProduct = "" }, "material/product"},
		{"missing batch", func(p *NewRequestParams) { p.Items[0].BatchNo = "" }, "batch number"},
		{"missing AR", func(p *NewRequestParams) { p.Items[0].CrossReference = "" }, "AR number"},
		{"zero qty", func(p *NewRequestParams) { p.Items[0].QtyRequired = decimal.Zero }, "greater than zero"},
		{"negative qty", func(p *NewRequestParams) { p.Items[0].QtyRequired = decimal.NewFromInt(-1) }, "greater than zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validRequestParams()
			tt.mutate(&p)

			_, err := NewRequest(p, at)

			require.Error(t, err)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRequest_AssignNumber(t *testing.T) {
	req, err := NewRequest(validRequestParams(), time.Now())
	require.NoError(t, err)

	require.NoError(t, req.AssignNumber("AWR-20260102-0001"))
	assert.Equal(t, "AWR-20260102-0001", req.RequestNo)

	err = req.AssignNumber("AWR-20260102-0002")
	require.Error(t, err)
	assert.Equal(t, "AWR-20260102-0001", req.RequestNo)
}

func TestFormatRequestNo(t *testing.T) {
	at := time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "AWR-20261016-0007", FormatRequestNo(at, 7))
	assert.Equal(t, "AWR-20261016-12345", FormatRequestNo(at, 12345))
}

func TestQueueEntry_EffectiveQty(t *testing.T) {
	e := QueueEntry{Item: Item{QtyRequired: decimal.NewFromInt(3)}}
	assert.True(t, e.EffectiveQty().Equal(decimal.NewFromInt(3)))

	e.QtyIssued = decimal.NewFromInt(2)
	assert.True(t, e.EffectiveQty().Equal(decimal.NewFromInt(2)))
}

func TestRequest_CrossReferences(t *testing.T) {
	req := &Request{Items: []Item{{CrossReference: "AR-1"}, {CrossReference: "AR-2; AR-3"}}}
	assert.Equal(t, "AR-1,AR-2; AR-3", req.CrossReferences())
}

func TestActor(t *testing.T) {
	assert.True(t, NewActor("qa1", "qa").Role.CanApprove())
	assert.True(t, NewActor("root", "Admin").Role.CanApprove())
	assert.False(t, NewActor("bob", "Requester").Role.CanApprove())
	assert.False(t, NewActor("bob", "").Role.CanApprove())

	assert.Error(t, NewActor("  ", "QA").Validate())
	assert.NoError(t, NewActor("qa1", "QA").Validate())
}

package issuance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemStatus_Mapping(t *testing.T) {
	tests := []struct {
		status  ItemStatus
		name    string
		code    string
		display string
	}{
		{StatusDraft, "Draft", "Draft", "Draft"},
		{StatusPendingIssuance, "PendingIssuance", "PendingIssuance", "Pending Approval"},
		{StatusIssued, "Issued", "Issued", "Approved"},
		{StatusReceived, "Received", "InUse", "Completed"},
		{StatusVoided, "Voided", "Voided", "Voided"},
		{StatusComplete, "Complete", "Complete", "Complete"},
		{StatusRejectedByQa, "RejectedByQa", "RejectedByQa", "Rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.code, tt.status.Code())
			assert.Equal(t, tt.display, tt.status.DisplayName())

			parsed, err := ParseStatusCode(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.status, parsed)

			byName, err := ParseItemStatus(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.status, byName)
		})
	}
}

func TestItemStatus_LegacyAliases(t *testing.T) {
	s, err := ParseStatusCode("Returned")
	require.NoError(t, err)
	assert.Equal(t, StatusVoided, s)

	s, err = ParseItemStatus("inuse")
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, s)

	_, err = ParseStatusCode("Lost")
	assert.Error(t, err)
}

func TestItemStatus_ValueAndScan(t *testing.T) {
	v, err := StatusReceived.Value()
	require.NoError(t, err)
	assert.Equal(t, "InUse", v)

	_, err = StatusUnknown.Value()
	assert.Error(t, err)

	var s ItemStatus
	require.NoError(t, s.Scan("InUse"))
	assert.Equal(t, StatusReceived, s)

	require.NoError(t, s.Scan([]byte("Issued")))
	assert.Equal(t, StatusIssued, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, StatusUnknown, s)

	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan("Bogus"))
}

func TestItemStatus_JSON(t *testing.T) {
	out, err := json.Marshal(map[string]ItemStatus{"status": StatusReceived})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Received"}`, string(out))

	var decoded struct {
		Status ItemStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"RejectedByQa"}`), &decoded))
	assert.Equal(t, StatusRejectedByQa, decoded.Status)
}

func TestItemStatus_CanTransitionTo(t *testing.T) {
	legal := map[ItemStatus][]ItemStatus{
		StatusPendingIssuance: {StatusIssued, StatusRejectedByQa},
		StatusIssued:          {StatusReceived, StatusVoided},
	}

	all := []ItemStatus{
		StatusDraft, StatusPendingIssuance, StatusIssued, StatusReceived,
		StatusVoided, StatusComplete, StatusRejectedByQa,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, l := range legal[from] {
				if l == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestItemStatus_Flags(t *testing.T) {
	assert.True(t, StatusPendingIssuance.IsActive())
	assert.True(t, StatusIssued.IsActive())
	assert.True(t, StatusReceived.IsActive())
	assert.False(t, StatusVoided.IsActive())
	assert.False(t, StatusRejectedByQa.IsActive())
	assert.False(t, StatusComplete.IsActive())

	assert.True(t, StatusVoided.IsTerminal())
	assert.True(t, StatusRejectedByQa.IsTerminal())
	assert.False(t, StatusIssued.IsTerminal())
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []ItemStatus
		want  ItemStatus
	}{
		{"empty", nil, StatusUnknown},
		{"single pending", []ItemStatus{StatusPendingIssuance}, StatusPendingIssuance},
		{"pending wins over issued", []ItemStatus{StatusIssued, StatusPendingIssuance}, StatusPendingIssuance},
		{"issued wins over received", []ItemStatus{StatusReceived, StatusIssued}, StatusIssued},
		{"received wins over voided", []ItemStatus{StatusVoided, StatusReceived}, StatusReceived},
		{"all voided", []ItemStatus{StatusVoided, StatusVoided}, StatusVoided},
		{"all rejected", []ItemStatus{StatusRejectedByQa}, StatusRejectedByQa},
		{"mixed closed", []ItemStatus{StatusVoided, StatusRejectedByQa}, StatusComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.items))
		})
	}
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, []string{"PendingIssuance", "Issued", "InUse", "Received"}, StatusCodes(ActiveStatuses))
	assert.Equal(t, []string{"Voided", "Returned"}, StatusCodes([]ItemStatus{StatusVoided}))
	assert.Empty(t, StatusCodes([]ItemStatus{StatusUnknown}))
}

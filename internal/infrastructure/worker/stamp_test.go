package worker

import (
	"testing"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var stampTime = time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)

func stampOrder(mode bridge.Mode) bridge.WorkOrder {
	return bridge.WorkOrder{
		Mode:              mode,
		RequestNo:         "AWR-20250301-0001",
		AwrType:           "RM",
		ItemID:            12,
		MaterialProduct:   "Paracetamol 500mg",
		BatchNo:           "B-001",
		ArNo:              "AR-1",
		AwrNo:             "DOC-7",
		QtyIssued:         decimal.RequireFromString("2.5"),
		IssuedByUsername:  "qa1",
		PrintedByUsername: "alice",
	}
}

func TestStamp_Text(t *testing.T) {
	g := goldie.New(t)
	stamp := Stamp{Order: stampOrder(bridge.ModeGenerate), At: stampTime}
	g.Assert(t, "stamp_text", []byte(stamp.Text()))
}

func TestStamp_Receipt(t *testing.T) {
	g := goldie.New(t)
	stamp := Stamp{Order: stampOrder(bridge.ModePrint), At: stampTime, CompanyName: "Acme Labs"}
	g.Assert(t, "stamp_receipt", []byte(stamp.Receipt()))
}

func TestStamp_DayFirstDate(t *testing.T) {
	stamp := Stamp{Order: stampOrder(bridge.ModeGenerate), At: time.Date(2025, 12, 4, 7, 8, 9, 0, time.UTC)}
	assert.Contains(t, stamp.Footer(), "on 04-12-2025 07:08:09")
}

func TestCopies(t *testing.T) {
	tests := []struct {
		qty  string
		want int
	}{
		{"0", 1},
		{"-2", 1},
		{"0.2", 1},
		{"1", 1},
		{"2.1", 3},
		{"3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.qty, func(t *testing.T) {
			assert.Equal(t, tt.want, Copies(decimal.RequireFromString(tt.qty)))
		})
	}
}

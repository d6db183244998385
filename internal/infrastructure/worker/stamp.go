// Package worker performs the GENERATE and PRINT actions for one work order.
// It runs inside the awr-worker process, never inside the server.
package worker

import (
	"fmt"
	"strings"
	"time"

	"github.com/awr/backend/internal/infrastructure/bridge"
	"github.com/shopspring/decimal"
)

// DateFormat is the day-first timestamp printed on stamps and receipts
const DateFormat = "02-01-2006 15:04:05"

// Stamp renders the text placed on a controlled copy
type Stamp struct {
	Order       bridge.WorkOrder
	At          time.Time
	CompanyName string
}

func (s Stamp) date() string {
	return s.At.Format(DateFormat)
}

// Header is right-aligned at the top of every page
func (s Stamp) Header() string {
	return fmt.Sprintf("%s / %s / %s\nQty Issued: %s\nAWR No.: %s\nCONTROLLED DOCUMENT - ISSUED COPY (S/W)",
		s.Order.MaterialProduct, s.Order.BatchNo, s.Order.ArNo,
		wholeQty(s.Order.QtyIssued), s.Order.AwrNo)
}

// Footer is centered at the bottom of every page
func (s Stamp) Footer() string {
	return fmt.Sprintf("Request No: %s\nIssued By (QA): %s on %s\nStatus: Approved (Issued) | Processed On: %s",
		s.Order.RequestNo, s.Order.IssuedByUsername, s.date(), s.date())
}

// Text is the sidecar content written next to a generated copy
func (s Stamp) Text() string {
	return "[HEADER]\n" + s.Header() + "\n\n[FOOTER]\n" + s.Footer() + "\n"
}

// Receipt is the acknowledgement printed after the copies
func (s Stamp) Receipt() string {
	var b strings.Builder
	if s.CompanyName != "" {
		b.WriteString(s.CompanyName + "\n")
	}
	b.WriteString("AWR DOCUMENT ISSUANCE RECEIPT\n\n")
	rows := [][2]string{
		{"Request No:", s.Order.RequestNo},
		{"Document ID (AWR):", s.Order.AwrNo},
		{"Material / Product:", s.Order.MaterialProduct},
		{"Batch No:", s.Order.BatchNo},
		{"AR No:", s.Order.ArNo},
		{"Copies Issued:", wholeQty(s.Order.QtyIssued)},
		{"Issued By (QA):", s.Order.IssuedByUsername},
		{"Received By (QC):", s.Order.PrintedByUsername},
		{"Timestamp (Print):", s.date()},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-20s %s\n", r[0], r[1])
	}
	b.WriteString("\nI hereby acknowledge receipt of the controlled documents listed above.\n\n")
	b.WriteString("____________________________________\nSignature & Date\n")
	return b.String()
}

// Copies is the number of printed copies: the quantity rounded up, at least one
func Copies(qty decimal.Decimal) int {
	n := int(qty.Ceil().IntPart())
	if n < 1 {
		return 1
	}
	return n
}

func wholeQty(qty decimal.Decimal) string {
	return qty.StringFixed(0)
}

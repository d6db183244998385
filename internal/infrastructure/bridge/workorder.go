// Package bridge launches the external worker for one item action and
// classifies how the run ended.
package bridge

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/shopspring/decimal"
)

// Mode selects the worker action
type Mode string

const (
	ModeGenerate Mode = "GENERATE"
	ModePrint    Mode = "PRINT"
)

// IsValid reports whether m is a known mode
func (m Mode) IsValid() bool {
	return m == ModeGenerate || m == ModePrint
}

// WorkOrder is everything the worker needs to act on one item
type WorkOrder struct {
	Mode              Mode            `json:"mode"`
	RequestNo         string          `json:"requestNo"`
	AwrType           string          `json:"awrType"`
	ItemID            int64           `json:"itemId"`
	MaterialProduct   string          `json:"materialProduct"`
	BatchNo           string          `json:"batchNo"`
	ArNo              string          `json:"arNo"`
	AwrNo             string          `json:"awrNo"`
	QtyIssued         decimal.Decimal `json:"qtyIssued"`
	IssuedByUsername  string          `json:"issuedByUsername"`
	PrintedByUsername string          `json:"printedByUsername,omitempty"`
}

// NewGenerateOrder builds the GENERATE order for an item being approved for qty
func NewGenerateOrder(entry issuance.QueueEntry, qty decimal.Decimal, issuedBy string) WorkOrder {
	order := orderFromEntry(ModeGenerate, entry)
	order.QtyIssued = qty
	order.IssuedByUsername = issuedBy
	return order
}

// NewPrintOrder builds the PRINT order for an issued item
func NewPrintOrder(entry issuance.QueueEntry, printedBy string) WorkOrder {
	order := orderFromEntry(ModePrint, entry)
	order.QtyIssued = entry.EffectiveQty()
	order.IssuedByUsername = entry.IssuedBy
	order.PrintedByUsername = printedBy
	return order
}

func orderFromEntry(mode Mode, entry issuance.QueueEntry) WorkOrder {
	return WorkOrder{
		Mode:            mode,
		RequestNo:       entry.RequestNo,
		AwrType:         string(entry.Type),
		ItemID:          entry.ID,
		MaterialProduct: entry.MaterialOrProduct,
		BatchNo:         entry.BatchNo,
		ArNo:            entry.CrossReference,
		AwrNo:           entry.DocumentReference,
	}
}

// Validate checks the fields the worker relies on
func (w WorkOrder) Validate() error {
	if !w.Mode.IsValid() {
		return fmt.Errorf("invalid mode %q", w.Mode)
	}
	if strings.TrimSpace(w.RequestNo) == "" {
		return fmt.Errorf("requestNo is required")
	}
	if strings.TrimSpace(w.AwrNo) == "" {
		return fmt.Errorf("awrNo is required")
	}
	if w.ItemID <= 0 {
		return fmt.Errorf("itemId must be positive")
	}
	return nil
}

// FileName is the name of the controlled copy: <RequestNo>_<AwrNo><ext>
func (w WorkOrder) FileName(ext string) string {
	return w.RequestNo + "_" + w.AwrNo + ext
}

// Encode renders the order as base64 JSON for the worker command line
func (w WorkOrder) Encode() (string, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("failed to encode work order: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeWorkOrder parses and validates a payload produced by Encode
func DecodeWorkOrder(payload string) (*WorkOrder, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("payload is not valid base64: %w", err)
	}
	var order WorkOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("payload is not a valid work order: %w", err)
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("invalid work order: %w", err)
	}
	return &order, nil
}

package issuance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequestNoPrefix starts every human-readable request number
const RequestNoPrefix = "AWR"

// Request is the header of one submitted document-issuance request
type Request struct {
	ID                int64
	RequestNo         string
	DocumentReference string
	Type              AwrType
	PreparedBy        string
	RequestedAt       time.Time
	Comment           string
	CurrentStatus     ItemStatus
	Items             []Item
}

// Item is a line within a Request carrying its own workflow status
type Item struct {
	ID                int64
	RequestID         int64
	MaterialOrProduct string
	BatchNo           string
	CrossReference    string
	QtyRequired       decimal.Decimal
	Status            ItemStatus

	QtyIssued decimal.Decimal
	IssuedBy  string
	IssuedAt  *time.Time

	ReceivedBy string
	ReceivedAt *time.Time

	ReturnedBy string
	ReturnedAt *time.Time
	Remark     string
}

// NewItemParams holds the caller-supplied fields of a line item
type NewItemParams struct {
	MaterialOrProduct string
	BatchNo           string
	CrossReference    string
	QtyRequired       decimal.Decimal
}

// NewRequestParams holds the caller-supplied fields of a submission
type NewRequestParams struct {
	Type              AwrType
	DocumentReference string
	Comment           string
	PreparedBy        string
	Items             []NewItemParams
}

// NewRequest builds an unnumbered request with all items in PendingIssuance.
// The request number is assigned later by AssignNumber inside the submit transaction.
func NewRequest(p NewRequestParams, requestedAt time.Time) (*Request, error) {
	if !p.Type.IsValid() {
		return nil, NewValidationError(fmt.Sprintf("invalid AWR type %q", p.Type))
	}
	if strings.TrimSpace(p.DocumentReference) == "" {
		return nil, NewValidationError("document reference (AWR No.) is required")
	}
	if strings.TrimSpace(p.PreparedBy) == "" {
		return nil, NewValidationError("submitter is required")
	}
	if len(p.Items) == 0 {
		return nil, NewValidationError("a request must contain at least one item")
	}

	req := &Request{
		DocumentReference: strings.TrimSpace(p.DocumentReference),
		Type:              p.Type,
		PreparedBy:        strings.TrimSpace(p.PreparedBy),
		RequestedAt:       requestedAt,
		Comment:           strings.TrimSpace(p.Comment),
		CurrentStatus:     StatusPendingIssuance,
		Items:             make([]Item, 0, len(p.Items)),
	}

	for i, ip := range p.Items {
		if strings.TrimSpace(ip.MaterialOrProduct) == "" {
			return nil, NewValidationError(fmt.Sprintf("item %d: material/product is required", i+1))
		}
		if strings.TrimSpace(ip.BatchNo) == "" {
			return nil, NewValidationError(fmt.Sprintf("item %d: batch number is required", i+1))
		}
		if strings.TrimSpace(ip.CrossReference) == "" {
			return nil, NewValidationError(fmt.Sprintf("item %d: AR number is required", i+1))
		}
		if !ip.QtyRequired.IsPositive() {
			return nil, NewValidationError(fmt.Sprintf("item %d: quantity must be greater than zero", i+1))
		}
		req.Items = append(req.Items, Item{
			MaterialOrProduct: strings.TrimSpace(ip.MaterialOrProduct),
			BatchNo:           strings.TrimSpace(ip.BatchNo),
			CrossReference:    strings.TrimSpace(ip.CrossReference),
			QtyRequired:       ip.QtyRequired,
			Status:            StatusPendingIssuance,
		})
	}

	return req, nil
}

// AssignNumber sets the request number. It may only happen once.
func (r *Request) AssignNumber(requestNo string) error {
	if r.RequestNo != "" {
		return NewValidationError("request number already assigned: " + r.RequestNo)
	}
	if strings.TrimSpace(requestNo) == "" {
		return NewValidationError("request number cannot be empty")
	}
	r.RequestNo = requestNo
	return nil
}

// ItemStatuses returns the status of every item, in order
func (r *Request) ItemStatuses() []ItemStatus {
	out := make([]ItemStatus, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Status
	}
	return out
}

// CrossReferences joins every item's reference text, for duplicate checking
func (r *Request) CrossReferences() string {
	parts := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		parts = append(parts, it.CrossReference)
	}
	return strings.Join(parts, ",")
}

// FormatRequestNo renders AWR-<YYYYMMDD>-<sequence>
func FormatRequestNo(at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", RequestNoPrefix, at.Format("20060102"), seq)
}

// QueueEntry is an item together with the header fields a queue view or the
// process bridge needs
type QueueEntry struct {
	Item
	RequestNo         string
	DocumentReference string
	Type              AwrType
	PreparedBy        string
	RequestedAt       time.Time
	Comment           string
}

// EffectiveQty is the quantity printed on and for the document: the issued
// quantity once set, otherwise the requested one
func (e QueueEntry) EffectiveQty() decimal.Decimal {
	if e.QtyIssued.IsPositive() {
		return e.QtyIssued
	}
	return e.QtyRequired
}

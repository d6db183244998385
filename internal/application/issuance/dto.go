package issuance

import (
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SubmitItemInput is one line of a new request
type SubmitItemInput struct {
	MaterialOrProduct string          `json:"material_product" validate:"required,max=200"`
	BatchNo           string          `json:"batch_no" validate:"required,max=100"`
	CrossReference    string          `json:"ar_no" validate:"required,max=500"`
	QtyRequired       decimal.Decimal `json:"qty_required"`
}

// SubmitRequestInput is a new request. The request number is always assigned
// by the server.
type SubmitRequestInput struct {
	Type              string            `json:"awr_type" validate:"required"`
	DocumentReference string            `json:"document_reference" validate:"required,max=100"`
	Comment           string            `json:"comment" validate:"required,max=1000"`
	Items             []SubmitItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	// AcknowledgeDuplicates submits despite duplicate reference warnings
	AcknowledgeDuplicates bool           `json:"acknowledge_duplicates"`
	Submitter             issuance.Actor `json:"-"`
}

// SubmitResult is the stored request plus any advisory duplicate warnings
type SubmitResult struct {
	Request  *RequestDTO `json:"request"`
	Warnings []string    `json:"warnings"`
}

// IssueInput approves a pending item for qty copies
type IssueInput struct {
	ItemID int64
	Qty    decimal.Decimal
	Actor  issuance.Actor
}

// ReceiveInput prints and receives an issued item
type ReceiveInput struct {
	ItemID int64
	Actor  issuance.Actor
}

// VoidInput voids an issued item
type VoidInput struct {
	ItemID int64
	Actor  issuance.Actor
	Remark string
}

// RejectInput rejects a pending item
type RejectInput struct {
	ItemID  int64
	Actor   issuance.Actor
	Comment string
}

// ItemActionResult reports the state after a successful action
type ItemActionResult struct {
	ItemID        int64  `json:"item_id"`
	Status        string `json:"status"`
	StatusDisplay string `json:"status_display"`
	RequestID     int64  `json:"request_id"`
	RequestNo     string `json:"request_no"`
	RequestStatus string `json:"request_status"`
	File          string `json:"file,omitempty"`
	ArchiveKey    string `json:"archive_key,omitempty"`
}

// ItemDTO is a line item as returned by the API
type ItemDTO struct {
	ID                int64           `json:"id"`
	MaterialOrProduct string          `json:"material_product"`
	BatchNo           string          `json:"batch_no"`
	CrossReference    string          `json:"ar_no"`
	QtyRequired       decimal.Decimal `json:"qty_required"`
	QtyIssued         decimal.Decimal `json:"qty_issued"`
	Status            string          `json:"status"`
	StatusDisplay     string          `json:"status_display"`
	IssuedBy          string          `json:"issued_by,omitempty"`
	IssuedAt          *time.Time      `json:"issued_at,omitempty"`
	ReceivedBy        string          `json:"received_by,omitempty"`
	ReceivedAt        *time.Time      `json:"received_at,omitempty"`
	ReturnedBy        string          `json:"returned_by,omitempty"`
	ReturnedAt        *time.Time      `json:"returned_at,omitempty"`
	Remark            string          `json:"remark,omitempty"`
}

// RequestDTO is a request header with its items
type RequestDTO struct {
	ID                int64     `json:"id"`
	RequestNo         string    `json:"request_no"`
	DocumentReference string    `json:"document_reference"`
	Type              string    `json:"awr_type"`
	PreparedBy        string    `json:"prepared_by"`
	RequestedAt       time.Time `json:"requested_at"`
	Comment           string    `json:"comment"`
	Status            string    `json:"status"`
	StatusDisplay     string    `json:"status_display"`
	Items             []ItemDTO `json:"items"`
}

// QueueItemDTO is one row of a queue or the audit log
type QueueItemDTO struct {
	ItemDTO
	RequestID         int64     `json:"request_id"`
	RequestNo         string    `json:"request_no"`
	DocumentReference string    `json:"document_reference"`
	Type              string    `json:"awr_type"`
	PreparedBy        string    `json:"prepared_by"`
	RequestedAt       time.Time `json:"requested_at"`
	Comment           string    `json:"comment"`
}

// AuditLogInput filters and pages the audit log
type AuditLogInput struct {
	shared.Filter
	Statuses   []string
	Type       string
	PreparedBy string
	From       *time.Time
	To         *time.Time
}

// DocumentLink is a time-limited download URL for an archived copy
type DocumentLink struct {
	ItemID    int64     `json:"item_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toItemDTO(it issuance.Item) ItemDTO {
	return ItemDTO{
		ID:                it.ID,
		MaterialOrProduct: it.MaterialOrProduct,
		BatchNo:           it.BatchNo,
		CrossReference:    it.CrossReference,
		QtyRequired:       it.QtyRequired,
		QtyIssued:         it.QtyIssued,
		Status:            it.Status.String(),
		StatusDisplay:     it.Status.DisplayName(),
		IssuedBy:          it.IssuedBy,
		IssuedAt:          it.IssuedAt,
		ReceivedBy:        it.ReceivedBy,
		ReceivedAt:        it.ReceivedAt,
		ReturnedBy:        it.ReturnedBy,
		ReturnedAt:        it.ReturnedAt,
		Remark:            it.Remark,
	}
}

func toRequestDTO(r *issuance.Request) *RequestDTO {
	items := make([]ItemDTO, len(r.Items))
	for i, it := range r.Items {
		items[i] = toItemDTO(it)
	}
	return &RequestDTO{
		ID:                r.ID,
		RequestNo:         r.RequestNo,
		DocumentReference: r.DocumentReference,
		Type:              r.Type.String(),
		PreparedBy:        r.PreparedBy,
		RequestedAt:       r.RequestedAt,
		Comment:           r.Comment,
		Status:            r.CurrentStatus.String(),
		StatusDisplay:     r.CurrentStatus.DisplayName(),
		Items:             items,
	}
}

func toQueueItemDTO(e issuance.QueueEntry) QueueItemDTO {
	return QueueItemDTO{
		ItemDTO:           toItemDTO(e.Item),
		RequestID:         e.RequestID,
		RequestNo:         e.RequestNo,
		DocumentReference: e.DocumentReference,
		Type:              e.Type.String(),
		PreparedBy:        e.PreparedBy,
		RequestedAt:       e.RequestedAt,
		Comment:           e.Comment,
	}
}

func toQueueItemDTOs(entries []issuance.QueueEntry) []QueueItemDTO {
	out := make([]QueueItemDTO, len(entries))
	for i, e := range entries {
		out[i] = toQueueItemDTO(e)
	}
	return out
}

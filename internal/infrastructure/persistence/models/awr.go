package models

import (
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/shopspring/decimal"
)

// AwrRequestModel is the persistence model for a request header
type AwrRequestModel struct {
	ID                int64               `gorm:"primaryKey;autoIncrement"`
	RequestNo         string              `gorm:"type:varchar(32);not null;uniqueIndex"`
	DocumentReference string              `gorm:"type:varchar(100);not null"`
	AwrType           string              `gorm:"type:varchar(20);not null"`
	PreparedBy        string              `gorm:"type:varchar(100);not null;index"`
	RequestedAt       time.Time           `gorm:"not null"`
	Comment           string              `gorm:"type:text;not null;default:''"`
	CurrentStatus     issuance.ItemStatus `gorm:"type:varchar(32);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []AwrItemModel `gorm:"foreignKey:RequestID;references:ID"`
}

// TableName returns the table name for GORM
func (AwrRequestModel) TableName() string {
	return "awr_requests"
}

// ToDomain converts the header and any loaded items
func (m *AwrRequestModel) ToDomain() *issuance.Request {
	req := &issuance.Request{
		ID:                m.ID,
		RequestNo:         m.RequestNo,
		DocumentReference: m.DocumentReference,
		Type:              issuance.AwrType(m.AwrType),
		PreparedBy:        m.PreparedBy,
		RequestedAt:       m.RequestedAt,
		Comment:           m.Comment,
		CurrentStatus:     m.CurrentStatus,
		Items:             make([]issuance.Item, len(m.Items)),
	}
	for i := range m.Items {
		req.Items[i] = *m.Items[i].ToDomain()
	}
	return req
}

// AwrRequestModelFromDomain builds the header model. Items are converted
// separately because they are inserted after the header id is known.
func AwrRequestModelFromDomain(r *issuance.Request) *AwrRequestModel {
	return &AwrRequestModel{
		ID:                r.ID,
		RequestNo:         r.RequestNo,
		DocumentReference: r.DocumentReference,
		AwrType:           string(r.Type),
		PreparedBy:        r.PreparedBy,
		RequestedAt:       r.RequestedAt,
		Comment:           r.Comment,
		CurrentStatus:     r.CurrentStatus,
	}
}

// AwrItemModel is the persistence model for a request line item
type AwrItemModel struct {
	ID              int64               `gorm:"primaryKey;autoIncrement"`
	RequestID       int64               `gorm:"not null;index"`
	MaterialProduct string              `gorm:"type:varchar(200);not null"`
	BatchNo         string              `gorm:"type:varchar(100);not null"`
	CrossReference  string              `gorm:"type:text;not null"`
	QtyRequired     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Status          issuance.ItemStatus `gorm:"type:varchar(32);not null;index"`
	QtyIssued       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedBy        string              `gorm:"type:varchar(100);not null;default:''"`
	IssuedAt        *time.Time
	ReceivedBy      string `gorm:"type:varchar(100);not null;default:''"`
	ReceivedAt      *time.Time
	ReturnedBy      string `gorm:"type:varchar(100);not null;default:''"`
	ReturnedAt      *time.Time
	Remark          string `gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (AwrItemModel) TableName() string {
	return "awr_items"
}

// ToDomain converts the persistence model to a domain Item
func (m *AwrItemModel) ToDomain() *issuance.Item {
	return &issuance.Item{
		ID:                m.ID,
		RequestID:         m.RequestID,
		MaterialOrProduct: m.MaterialProduct,
		BatchNo:           m.BatchNo,
		CrossReference:    m.CrossReference,
		QtyRequired:       m.QtyRequired,
		Status:            m.Status,
		QtyIssued:         m.QtyIssued,
		IssuedBy:          m.IssuedBy,
		IssuedAt:          m.IssuedAt,
		ReceivedBy:        m.ReceivedBy,
		ReceivedAt:        m.ReceivedAt,
		ReturnedBy:        m.ReturnedBy,
		ReturnedAt:        m.ReturnedAt,
		Remark:            m.Remark,
	}
}

// AwrItemModelFromDomain builds an item model owned by requestID
func AwrItemModelFromDomain(requestID int64, it *issuance.Item) *AwrItemModel {
	return &AwrItemModel{
		ID:              it.ID,
		RequestID:       requestID,
		MaterialProduct: it.MaterialOrProduct,
		BatchNo:         it.BatchNo,
		CrossReference:  it.CrossReference,
		QtyRequired:     it.QtyRequired,
		Status:          it.Status,
		QtyIssued:       it.QtyIssued,
		IssuedBy:        it.IssuedBy,
		IssuedAt:        it.IssuedAt,
		ReceivedBy:      it.ReceivedBy,
		ReceivedAt:      it.ReceivedAt,
		ReturnedBy:      it.ReturnedBy,
		ReturnedAt:      it.ReturnedAt,
		Remark:          it.Remark,
	}
}

// AwrSequenceModel is one named counter row
type AwrSequenceModel struct {
	Name      string `gorm:"primaryKey;type:varchar(50)"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (AwrSequenceModel) TableName() string {
	return "awr_sequences"
}

// AwrQueueRow is an item row joined with its header, as read by queue views
type AwrQueueRow struct {
	ID                int64
	RequestID         int64
	MaterialProduct   string
	BatchNo           string
	CrossReference    string
	QtyRequired       decimal.Decimal
	Status            issuance.ItemStatus
	QtyIssued         decimal.Decimal
	IssuedBy          string
	IssuedAt          *time.Time
	ReceivedBy        string
	ReceivedAt        *time.Time
	ReturnedBy        string
	ReturnedAt        *time.Time
	Remark            string
	RequestNo         string
	DocumentReference string
	AwrType           string
	PreparedBy        string
	RequestedAt       time.Time
	Comment           string
}

// AwrQueueColumns is the select list that fills an AwrQueueRow from
// "awr_items AS i JOIN awr_requests AS r"
const AwrQueueColumns = "i.id, i.request_id, i.material_product, i.batch_no, i.cross_reference, " +
	"i.qty_required, i.status, i.qty_issued, i.issued_by, i.issued_at, i.received_by, i.received_at, " +
	"i.returned_by, i.returned_at, i.remark, " +
	"r.request_no, r.document_reference, r.awr_type, r.prepared_by, r.requested_at, r.comment"

// ToDomain converts the joined row to a queue entry
func (r *AwrQueueRow) ToDomain() issuance.QueueEntry {
	return issuance.QueueEntry{
		Item: issuance.Item{
			ID:                r.ID,
			RequestID:         r.RequestID,
			MaterialOrProduct: r.MaterialProduct,
			BatchNo:           r.BatchNo,
			CrossReference:    r.CrossReference,
			QtyRequired:       r.QtyRequired,
			Status:            r.Status,
			QtyIssued:         r.QtyIssued,
			IssuedBy:          r.IssuedBy,
			IssuedAt:          r.IssuedAt,
			ReceivedBy:        r.ReceivedBy,
			ReceivedAt:        r.ReceivedAt,
			ReturnedBy:        r.ReturnedBy,
			ReturnedAt:        r.ReturnedAt,
			Remark:            r.Remark,
		},
		RequestNo:         r.RequestNo,
		DocumentReference: r.DocumentReference,
		Type:              issuance.AwrType(r.AwrType),
		PreparedBy:        r.PreparedBy,
		RequestedAt:       r.RequestedAt,
		Comment:           r.Comment,
	}
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRequestRepository implements issuance.RequestRepository using GORM
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GormRequestRepository
func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormRequestRepository) WithTx(tx *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: tx}
}

// Create inserts the header, then the items with the new header id. The ids
// are written back into req.
func (r *GormRequestRepository) Create(ctx context.Context, req *issuance.Request) error {
	if len(req.Items) == 0 {
		return issuance.NewValidationError("a request must contain at least one item")
	}
	if req.RequestNo == "" {
		return issuance.NewValidationError("request number must be assigned before insert")
	}

	db := r.db.WithContext(ctx)
	header := models.AwrRequestModelFromDomain(req)
	if err := db.Omit(clause.Associations).Create(header).Error; err != nil {
		return fmt.Errorf("failed to insert request header %s: %w", req.RequestNo, err)
	}

	items := make([]*models.AwrItemModel, len(req.Items))
	for i := range req.Items {
		items[i] = models.AwrItemModelFromDomain(header.ID, &req.Items[i])
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to insert items for request %s: %w", req.RequestNo, err)
	}

	req.ID = header.ID
	for i, m := range items {
		req.Items[i].ID = m.ID
		req.Items[i].RequestID = header.ID
	}
	return nil
}

// FindByID returns the header with all of its items ordered by id
func (r *GormRequestRepository) FindByID(ctx context.Context, id int64) (*issuance.Request, error) {
	var model models.AwrRequestModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, issuance.NewRequestNotFoundError(id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItem returns one item joined with its header
func (r *GormRequestRepository) FindItem(ctx context.Context, itemID int64) (*issuance.QueueEntry, error) {
	var rows []models.AwrQueueRow
	err := queueQuery(r.db.WithContext(ctx)).
		Where("i.id = ?", itemID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, issuance.NewItemNotFoundError(itemID)
	}
	entry := rows[0].ToDomain()
	return &entry, nil
}

// ApplyTransition updates the item only while it is still in t.From
func (r *GormRequestRepository) ApplyTransition(ctx context.Context, itemID int64, t issuance.Transition) error {
	updates := map[string]any{
		"status":     t.To,
		"updated_at": t.At,
	}
	switch t.Action {
	case issuance.ActionIssue:
		updates["qty_issued"] = t.QtyIssued
		updates["issued_by"] = t.Actor
		updates["issued_at"] = t.At
	case issuance.ActionReceive:
		updates["received_by"] = t.Actor
		updates["received_at"] = t.At
	case issuance.ActionVoid:
		updates["returned_by"] = t.Actor
		updates["returned_at"] = t.At
		updates["remark"] = t.Remark
	case issuance.ActionReject:
		updates["remark"] = t.Remark
	default:
		return issuance.NewValidationError("unknown action " + string(t.Action))
	}

	result := r.db.WithContext(ctx).
		Table(models.AwrItemModel{}.TableName()).
		Where("id = ? AND status = ?", itemID, t.From).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to %s item %d: %w", t.Action.Verb(), itemID, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: tell a missing item apart from one that moved on
	current, err := r.currentStatus(ctx, itemID)
	if err != nil {
		return err
	}
	return issuance.NewConflictError(itemID, t.Action, current)
}

func (r *GormRequestRepository) currentStatus(ctx context.Context, itemID int64) (issuance.ItemStatus, error) {
	var statuses []issuance.ItemStatus
	err := r.db.WithContext(ctx).
		Table(models.AwrItemModel{}.TableName()).
		Where("id = ?", itemID).
		Limit(1).
		Pluck("status", &statuses).Error
	if err != nil {
		return issuance.StatusUnknown, err
	}
	if len(statuses) == 0 {
		return issuance.StatusUnknown, issuance.NewItemNotFoundError(itemID)
	}
	return statuses[0], nil
}

// RefreshHeaderStatus recomputes the header status from its items and stores it
func (r *GormRequestRepository) RefreshHeaderStatus(ctx context.Context, requestID int64) (issuance.ItemStatus, error) {
	db := r.db.WithContext(ctx)

	var statuses []issuance.ItemStatus
	if err := db.Table(models.AwrItemModel{}.TableName()).
		Where("request_id = ?", requestID).
		Order("id").
		Pluck("status", &statuses).Error; err != nil {
		return issuance.StatusUnknown, err
	}
	if len(statuses) == 0 {
		return issuance.StatusUnknown, issuance.NewRequestNotFoundError(requestID)
	}

	aggregate := issuance.AggregateStatus(statuses)
	err := db.Table(models.AwrRequestModel{}.TableName()).
		Where("id = ?", requestID).
		Updates(map[string]any{
			"current_status": aggregate,
			"updated_at":     time.Now(),
		}).Error
	if err != nil {
		return issuance.StatusUnknown, fmt.Errorf("failed to update status of request %d: %w", requestID, err)
	}
	return aggregate, nil
}

// joinedItems starts a query over items joined with their header
func joinedItems(db *gorm.DB) *gorm.DB {
	return db.Table("awr_items AS i").
		Joins("JOIN awr_requests AS r ON r.id = i.request_id")
}

// queueQuery selects the columns of an AwrQueueRow
func queueQuery(db *gorm.DB) *gorm.DB {
	return joinedItems(db).Select(models.AwrQueueColumns)
}

// Ensure GormRequestRepository implements issuance.RequestRepository
var _ issuance.RequestRepository = (*GormRequestRepository)(nil)

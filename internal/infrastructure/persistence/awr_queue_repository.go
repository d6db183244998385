package persistence

import (
	"context"
	"strings"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// auditSortColumns whitelists the audit log's sort keys
var auditSortColumns = map[string]string{
	"requested_at":     "r.requested_at",
	"request_no":       "r.request_no",
	"prepared_by":      "r.prepared_by",
	"awr_type":         "r.awr_type",
	"status":           "i.status",
	"material_product": "i.material_product",
	"issued_at":        "i.issued_at",
}

// GormQueueRepository implements issuance.QueueRepository using GORM
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository creates a new GormQueueRepository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// FindByStatuses lists items in any of the statuses, oldest request first.
// An empty preparedBy means all preparers.
func (r *GormQueueRepository) FindByStatuses(ctx context.Context, statuses []issuance.ItemStatus, preparedBy string) ([]issuance.QueueEntry, error) {
	if len(statuses) == 0 {
		return []issuance.QueueEntry{}, nil
	}
	query := queueQuery(r.db.WithContext(ctx)).
		Where("i.status IN ?", issuance.StatusCodes(statuses))
	if preparedBy != "" {
		query = query.Where("r.prepared_by = ?", preparedBy)
	}

	var rows []models.AwrQueueRow
	if err := query.Order("r.requested_at ASC, i.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toQueueEntries(rows), nil
}

// FindSubmittedBy lists every item the user submitted, newest first
func (r *GormQueueRepository) FindSubmittedBy(ctx context.Context, preparedBy string) ([]issuance.QueueEntry, error) {
	var rows []models.AwrQueueRow
	err := queueQuery(r.db.WithContext(ctx)).
		Where("r.prepared_by = ?", preparedBy).
		Order("r.requested_at DESC, i.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toQueueEntries(rows), nil
}

// FindAudit returns one page of the audit log and the total row count
func (r *GormQueueRepository) FindAudit(ctx context.Context, filter issuance.AuditFilter) ([]issuance.QueueEntry, int64, error) {
	page := filter.Filter.Normalize()
	db := r.db.WithContext(ctx)

	var total int64
	if err := r.applyAuditFilter(joinedItems(db), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []issuance.QueueEntry{}, 0, nil
	}

	orderBy, ok := auditSortColumns[page.OrderBy]
	if !ok {
		orderBy = "r.requested_at"
	}

	var rows []models.AwrQueueRow
	err := r.applyAuditFilter(queueQuery(db), filter).
		Order(orderBy + " " + strings.ToUpper(page.OrderDir) + ", i.id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toQueueEntries(rows), total, nil
}

func (r *GormQueueRepository) applyAuditFilter(query *gorm.DB, filter issuance.AuditFilter) *gorm.DB {
	if len(filter.Statuses) > 0 {
		query = query.Where("i.status IN ?", issuance.StatusCodes(filter.Statuses))
	}
	if filter.Type != "" {
		query = query.Where("r.awr_type = ?", string(filter.Type))
	}
	if filter.PreparedBy != "" {
		query = query.Where("r.prepared_by = ?", filter.PreparedBy)
	}
	if filter.From != nil {
		query = query.Where("r.requested_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("r.requested_at < ?", *filter.To)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(r.request_no) LIKE ? ESCAPE '\\' OR LOWER(r.document_reference) LIKE ? ESCAPE '\\' OR "+
				"LOWER(i.material_product) LIKE ? ESCAPE '\\' OR LOWER(i.batch_no) LIKE ? ESCAPE '\\' OR "+
				"LOWER(i.cross_reference) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	return query
}

// escapeLike escapes LIKE wildcards so user text matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toQueueEntries(rows []models.AwrQueueRow) []issuance.QueueEntry {
	out := make([]issuance.QueueEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormQueueRepository implements issuance.QueueRepository
var _ issuance.QueueRepository = (*GormQueueRepository)(nil)

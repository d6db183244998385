package issuance

import (
	"context"
	"time"

	"github.com/awr/backend/internal/domain/shared"
)

// RequestRepository persists requests and applies item transitions
type RequestRepository interface {
	// Create inserts the header, reads back its id and inserts every item.
	// Callers run it inside a transaction so a failure leaves no partial request.
	Create(ctx context.Context, req *Request) error

	// FindByID returns the header with all of its items
	FindByID(ctx context.Context, id int64) (*Request, error)

	// FindItem returns one item joined with its header fields
	FindItem(ctx context.Context, itemID int64) (*QueueEntry, error)

	// ApplyTransition runs a conditional update guarded by t.From. It returns
	// a NOT_FOUND error when the item does not exist and a CONFLICT error when
	// the item is no longer in t.From.
	ApplyTransition(ctx context.Context, itemID int64, t Transition) error

	// RefreshHeaderStatus recomputes and stores the header's aggregate status
	RefreshHeaderStatus(ctx context.Context, requestID int64) (ItemStatus, error)
}

// AuditFilter narrows the audit log
type AuditFilter struct {
	shared.Filter
	Statuses   []ItemStatus
	Type       AwrType
	PreparedBy string
	From       *time.Time
	To         *time.Time
}

// QueueRepository serves the read-only queue views
type QueueRepository interface {
	// FindByStatuses lists items in any of the statuses, optionally limited to one preparer
	FindByStatuses(ctx context.Context, statuses []ItemStatus, preparedBy string) ([]QueueEntry, error)

	// FindSubmittedBy lists every item submitted by preparedBy, newest first
	FindSubmittedBy(ctx context.Context, preparedBy string) ([]QueueEntry, error)

	// FindAudit returns one page of the audit log and the total row count
	FindAudit(ctx context.Context, filter AuditFilter) ([]QueueEntry, int64, error)
}

// SequenceGenerator hands out unique, increasing request sequence values
type SequenceGenerator interface {
	NextSequenceValue(ctx context.Context) (int64, error)
}

// DuplicateReferenceChecker scans active items for overlapping cross-references
type DuplicateReferenceChecker interface {
	// FindDuplicates returns one description per collision. When excludeRequestID
	// is set, that request's own items are ignored.
	FindDuplicates(ctx context.Context, referenceInput string, excludeRequestID *int64) ([]string, error)
}

// ActionLease guards an item while a worker action runs for it
type ActionLease interface {
	// Acquire returns false when another holder owns the key
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

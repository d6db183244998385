package issuance

import (
	"context"
	"errors"
	"fmt"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/domain/shared"
	"github.com/awr/backend/internal/infrastructure/storage"
)

// IssuanceQueue lists every item waiting for QA approval
func (s *WorkflowService) IssuanceQueue(ctx context.Context) ([]QueueItemDTO, error) {
	entries, err := s.queues.FindByStatuses(ctx, issuance.IssuanceQueueStatuses, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load issuance queue: %w", err)
	}
	return toQueueItemDTOs(entries), nil
}

// ReceiptQueue lists the preparer's issued items waiting to be printed
func (s *WorkflowService) ReceiptQueue(ctx context.Context, preparedBy string) ([]QueueItemDTO, error) {
	entries, err := s.queues.FindByStatuses(ctx, issuance.ReceiptQueueStatuses, preparedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt queue: %w", err)
	}
	return toQueueItemDTOs(entries), nil
}

// ReturnQueue lists the preparer's received and voided items
func (s *WorkflowService) ReturnQueue(ctx context.Context, preparedBy string) ([]QueueItemDTO, error) {
	entries, err := s.queues.FindByStatuses(ctx, issuance.ReturnQueueStatuses, preparedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to load return queue: %w", err)
	}
	return toQueueItemDTOs(entries), nil
}

// MySubmitted lists every item the preparer submitted, newest first
func (s *WorkflowService) MySubmitted(ctx context.Context, preparedBy string) ([]QueueItemDTO, error) {
	if preparedBy == "" {
		return nil, issuance.NewValidationError("preparer is required")
	}
	entries, err := s.queues.FindSubmittedBy(ctx, preparedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to load submitted items: %w", err)
	}
	return toQueueItemDTOs(entries), nil
}

// AuditLog returns one page of the audit log
func (s *WorkflowService) AuditLog(ctx context.Context, input AuditLogInput) (*shared.Paginated[QueueItemDTO], error) {
	filter := issuance.AuditFilter{
		Filter:     input.Filter.Normalize(),
		PreparedBy: input.PreparedBy,
		From:       input.From,
		To:         input.To,
	}
	for _, name := range input.Statuses {
		status, err := issuance.ParseItemStatus(name)
		if err != nil {
			return nil, issuance.NewValidationError(err.Error())
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if input.Type != "" {
		t, ok := issuance.ParseAwrType(input.Type)
		if !ok {
			return nil, issuance.NewValidationError(fmt.Sprintf("invalid AWR type %q", input.Type))
		}
		filter.Type = t
	}
	if input.From != nil && input.To != nil && !input.From.Before(*input.To) {
		return nil, issuance.NewValidationError("from must be before to")
	}

	entries, total, err := s.queues.FindAudit(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit log: %w", err)
	}
	page := shared.NewPaginated(toQueueItemDTOs(entries), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetRequest returns a request header with all of its items
func (s *WorkflowService) GetRequest(ctx context.Context, id int64) (*RequestDTO, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRequestDTO(req), nil
}

// DocumentLink signs a download URL for the archived copy of an issued item
func (s *WorkflowService) DocumentLink(ctx context.Context, itemID int64) (*DocumentLink, error) {
	if s.archive == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "document archive is not enabled")
	}
	entry, err := s.requests.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if entry.IssuedAt == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("AWR item %d has no issued document", itemID))
	}

	key, err := s.archive.FindDocument(ctx, entry.RequestNo, entry.DocumentReference)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotArchived) {
			return nil, shared.WrapDomainError(shared.CodeNotFound,
				fmt.Sprintf("no archived document for AWR item %d", itemID), err)
		}
		return nil, fmt.Errorf("failed to locate document for item %d: %w", itemID, err)
	}
	url, expiresAt, err := s.archive.PresignDownload(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download for item %d: %w", itemID, err)
	}
	return &DocumentLink{ItemID: itemID, Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

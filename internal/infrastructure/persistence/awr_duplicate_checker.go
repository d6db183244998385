package persistence

import (
	"context"
	"strings"

	"github.com/awr/backend/internal/domain/issuance"
	"gorm.io/gorm"
)

// GormDuplicateReferenceChecker implements issuance.DuplicateReferenceChecker.
// The LIKE clause only narrows candidates; every candidate is re-tokenized and
// compared exactly, so "AR-1" never matches "AR-10".
type GormDuplicateReferenceChecker struct {
	db *gorm.DB
}

// NewGormDuplicateReferenceChecker creates a new checker
func NewGormDuplicateReferenceChecker(db *gorm.DB) *GormDuplicateReferenceChecker {
	return &GormDuplicateReferenceChecker{db: db}
}

type referenceCandidate struct {
	CrossReference string
	Status         issuance.ItemStatus
	RequestNo      string
}

// FindDuplicates returns one message per (token, request, status) collision
func (c *GormDuplicateReferenceChecker) FindDuplicates(ctx context.Context, referenceInput string, excludeRequestID *int64) ([]string, error) {
	tokens := issuance.ParseReferences(referenceInput)
	if len(tokens) == 0 {
		return []string{}, nil
	}

	conds := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, t := range tokens {
		conds[i] = "LOWER(i.cross_reference) LIKE ? ESCAPE '\\'"
		args[i] = "%" + escapeLike(strings.ToLower(t.Raw)) + "%"
	}

	query := joinedItems(c.db.WithContext(ctx)).
		Select("i.cross_reference, i.status, r.request_no").
		Where("i.status IN ?", issuance.StatusCodes(issuance.ActiveStatuses)).
		Where(strings.Join(conds, " OR "), args...)
	if excludeRequestID != nil {
		query = query.Where("i.request_id <> ?", *excludeRequestID)
	}

	var candidates []referenceCandidate
	if err := query.Order("r.request_no, i.id").Scan(&candidates).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	warnings := make([]string, 0)
	for _, cand := range candidates {
		for _, hit := range issuance.MatchReferences(tokens, cand.CrossReference) {
			msg := issuance.FormatDuplicate(hit.Raw, cand.RequestNo, cand.Status)
			if _, dup := seen[msg]; dup {
				continue
			}
			seen[msg] = struct{}{}
			warnings = append(warnings, msg)
		}
	}
	return warnings, nil
}

// Ensure GormDuplicateReferenceChecker implements issuance.DuplicateReferenceChecker
var _ issuance.DuplicateReferenceChecker = (*GormDuplicateReferenceChecker)(nil)

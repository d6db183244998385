package issuance

import (
	"fmt"

	"github.com/awr/backend/internal/domain/shared"
)

// Error codes specific to AWR issuance
const (
	CodeDuplicateReference = "DUPLICATE_REFERENCE"
	CodeBridgeCancelled    = "BRIDGE_CANCELLED"
	CodeBridgeFailure      = "BRIDGE_FAILURE"
	CodeBridgeTimeout      = "BRIDGE_TIMEOUT"
)

// NewValidationError reports caller-correctable input problems
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, message)
}

// NewItemNotFoundError reports a missing item id
func NewItemNotFoundError(itemID int64) *shared.DomainError {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("AWR item %d not found", itemID))
}

// NewRequestNotFoundError reports a missing request id
func NewRequestNotFoundError(requestID int64) *shared.DomainError {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("AWR request %d not found", requestID))
}

// NewConflictError reports a transition attempted against an item that is no
// longer in the expected prior status
func NewConflictError(itemID int64, action Action, current ItemStatus) *shared.DomainError {
	return shared.NewDomainError(shared.CodeConflict,
		fmt.Sprintf("cannot %s item %d: current status is %s", action.Verb(), itemID, current))
}

// NewDuplicateReferenceError blocks a submission whose references collide with active work
func NewDuplicateReferenceError(warnings []string) *shared.DomainError {
	return shared.NewDomainError(CodeDuplicateReference,
		fmt.Sprintf("%d cross-reference collision(s) with active requests", len(warnings))).
		WithDetails(warnings)
}

// NewForbiddenError reports a role that may not perform the action
func NewForbiddenError(actor Actor, action Action) *shared.DomainError {
	return shared.NewDomainError(shared.CodeForbidden,
		fmt.Sprintf("user %s with role %s may not %s items", actor.Username, actor.Role, action.Verb()))
}

// NewTransactionError wraps a store failure that forced a rollback
func NewTransactionError(cause error) *shared.DomainError {
	return shared.WrapDomainError(shared.CodeTransactionFailed, "transaction rolled back", cause)
}

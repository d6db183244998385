package issuance

import (
	"context"

	"github.com/awr/backend/internal/domain/issuance"
)

// TransactionScope runs a unit of work atomically. If fn returns an error the
// transaction is rolled back; otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the stores that share one transaction.
// The sequence generator must run on the same handle as the request insert so a
// rolled-back submission also rolls back its number.
type TransactionalRepositories interface {
	RequestRepo() issuance.RequestRepository
	SequenceGenerator() issuance.SequenceGenerator
}

// NoOpTransactionScope runs the function against the given repositories
// without a transaction. Used in unit tests with mocks.
type NoOpTransactionScope struct {
	requestRepo issuance.RequestRepository
	sequence    issuance.SequenceGenerator
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(requestRepo issuance.RequestRepository, sequence issuance.SequenceGenerator) *NoOpTransactionScope {
	return &NoOpTransactionScope{requestRepo: requestRepo, sequence: sequence}
}

// Execute calls fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// RequestRepo returns the request repository
func (s *NoOpTransactionScope) RequestRepo() issuance.RequestRepository {
	return s.requestRepo
}

// SequenceGenerator returns the sequence generator
func (s *NoOpTransactionScope) SequenceGenerator() issuance.SequenceGenerator {
	return s.sequence
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)

package persistence

import (
	"context"

	appissuance "github.com/awr/backend/internal/application/issuance"
	"github.com/awr/backend/internal/domain/issuance"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error, or
// panics, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appissuance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// RequestRepo returns the request repository scoped to the current transaction
func (r *gormTransactionalRepositories) RequestRepo() issuance.RequestRepository {
	return NewGormRequestRepository(r.tx)
}

// SequenceGenerator returns the request number generator scoped to the current transaction
func (r *gormTransactionalRepositories) SequenceGenerator() issuance.SequenceGenerator {
	return NewGormSequenceGenerator(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appissuance.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appissuance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/awr/backend/internal/domain/issuance"
	"gorm.io/gorm"
)

// RequestNoSequence names the counter row behind request numbers
const RequestNoSequence = "awr_request_no"

// nextSequenceSQL increments and returns the counter in one statement. It also
// creates the row on first use so an unseeded table still works.
const nextSequenceSQL = `INSERT INTO awr_sequences (name, value, updated_at) VALUES (?, 1, ?)
ON CONFLICT (name) DO UPDATE SET value = awr_sequences.value + 1, updated_at = excluded.updated_at
RETURNING value`

// GormSequenceGenerator implements issuance.SequenceGenerator on the awr_sequences table
type GormSequenceGenerator struct {
	db   *gorm.DB
	name string
}

// NewGormSequenceGenerator creates a generator for the request number counter
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db, name: RequestNoSequence}
}

// NewNamedSequenceGenerator creates a generator for another counter row
func NewNamedSequenceGenerator(db *gorm.DB, name string) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db, name: name}
}

// NextSequenceValue returns the next value. Concurrent callers never observe
// the same value because the row lock is held until their transaction ends.
func (g *GormSequenceGenerator) NextSequenceValue(ctx context.Context) (int64, error) {
	var value int64
	result := g.db.WithContext(ctx).Raw(nextSequenceSQL, g.name, time.Now()).Scan(&value)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", g.name, result.Error)
	}
	if value <= 0 {
		return 0, fmt.Errorf("sequence %s returned no value", g.name)
	}
	return value, nil
}

// Ensure GormSequenceGenerator implements issuance.SequenceGenerator
var _ issuance.SequenceGenerator = (*GormSequenceGenerator)(nil)

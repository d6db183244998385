// Package cache provides the per-item action lease used while a worker runs.
package cache

import (
	"context"
	"strconv"
	"time"
)

// LeaseKeyPrefix prefixes every item lease key
const LeaseKeyPrefix = "awr:item:"

// ItemLeaseKey returns the lease key for an item
func ItemLeaseKey(itemID int64) string {
	return LeaseKeyPrefix + strconv.FormatInt(itemID, 10)
}

// LeaseStore is an issuance.ActionLease that can be closed
type LeaseStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

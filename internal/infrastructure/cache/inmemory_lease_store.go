package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryLeaseStore implements LeaseStore in process memory. Leases are not
// shared between server instances.
type InMemoryLeaseStore struct {
	mu        sync.Mutex
	leases    map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryLeaseStore creates the store and starts a sweeper for expired leases
func NewInMemoryLeaseStore() *InMemoryLeaseStore {
	s := &InMemoryLeaseStore{
		leases:   make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Acquire takes the lease unless an unexpired one exists
func (s *InMemoryLeaseStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, held := s.leases[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	s.leases[key] = now.Add(ttl)
	return true, nil
}

// Release drops the lease
func (s *InMemoryLeaseStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, key)
	return nil
}

// Ping always succeeds
func (s *InMemoryLeaseStore) Ping(context.Context) error { return nil }

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryLeaseStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryLeaseStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryLeaseStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expiresAt := range s.leases {
		if !now.Before(expiresAt) {
			delete(s.leases, key)
		}
	}
}

// Size returns the number of tracked leases, including expired ones not yet swept
func (s *InMemoryLeaseStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leases)
}

var _ LeaseStore = (*InMemoryLeaseStore)(nil)

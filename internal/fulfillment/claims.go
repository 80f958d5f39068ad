package fulfillment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ClaimStore provides at-most-once claims on event identifiers.
// The key format is "claim:{eventId}".
type ClaimStore interface {
	// TryClaim atomically claims an event id. It returns true exactly once
	// per id within the TTL; every later call returns false. A claim is
	// never released when downstream processing fails.
	TryClaim(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// FormatClaimKey builds the standard claim key.
func FormatClaimKey(eventID string) string {
	return fmt.Sprintf("claim:%s", eventID)
}

// --- MemoryClaimStore ---

// MemoryClaimStore is an in-memory ClaimStore with TTL support. Suitable for
// testing and single-instance deployments.
type MemoryClaimStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
}

// NewMemoryClaimStore creates a new in-memory claim store.
func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{claims: make(map[string]time.Time)}
}

// TryClaim claims the id unless a live claim already exists. Expired
// entries are swept on every call so the map stays bounded by the number
// of live claims over a long process lifetime.
func (s *MemoryClaimStore) TryClaim(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	key := FormatClaimKey(eventID)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, expiry := range s.claims {
		if !now.Before(expiry) {
			delete(s.claims, k)
		}
	}

	if _, exists := s.claims[key]; exists {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

// Len returns the number of live claims. For testing.
func (s *MemoryClaimStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

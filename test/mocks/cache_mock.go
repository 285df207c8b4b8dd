package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

type cacheEntry struct {
	payload []byte
	ttl     time.Duration
}

// MockVerificationCache is an in-memory VerificationCache. Entries never
// expire; tests inspect SetCalls and the recorded TTLs instead.
type MockVerificationCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	GetCalls []string
	SetCalls []string
}

var _ ports.VerificationCache = (*MockVerificationCache)(nil)

func NewMockVerificationCache() *MockVerificationCache {
	return &MockVerificationCache{entries: make(map[string]cacheEntry)}
}

func (m *MockVerificationCache) Get(ctx context.Context, certificateID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, certificateID)
	entry, ok := m.entries[certificateID]
	return entry.payload, ok
}

func (m *MockVerificationCache) Set(ctx context.Context, certificateID string, payload []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, certificateID)
	m.entries[certificateID] = cacheEntry{payload: payload, ttl: ttl}
}

// TTLOf returns the ttl recorded for a key, zero when absent.
func (m *MockVerificationCache) TTLOf(certificateID string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[certificateID].ttl
}

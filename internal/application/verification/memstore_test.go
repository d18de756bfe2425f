package verification

import (
	"context"
	"fmt"
	"sync"

	"github.com/authcore-api/internal/domain"
)

// memStore is a single-process ArtifactStore with the same compare-and-delete
// semantics the DynamoDB adapter provides, used for concurrency tests.
type memStore struct {
	mu    sync.Mutex
	items map[string]domain.VerificationArtifact
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]domain.VerificationArtifact)}
}

func memKey(identifier string, channel domain.Channel) string {
	return identifier + "|" + string(channel)
}

func (m *memStore) Upsert(_ context.Context, a *domain.VerificationArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[memKey(a.Identifier, a.Channel)] = *a
	return nil
}

func (m *memStore) Get(_ context.Context, identifier string, channel domain.Channel) (*domain.VerificationArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[memKey(identifier, channel)]
	if !ok {
		return nil, fmt.Errorf("artifact not found: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (m *memStore) DeleteMatching(_ context.Context, identifier string, channel domain.Channel, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(identifier, channel)
	a, ok := m.items[key]
	if !ok || a.Secret != secret {
		return fmt.Errorf("artifact gone or replaced: %w", domain.ErrNotFound)
	}
	delete(m.items, key)
	return nil
}

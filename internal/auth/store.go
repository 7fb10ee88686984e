package auth

import (
	"context"
	"sync"

	"github.com/desertthunder/spotme/internal/shared"
)

// VerifierStore persists the verifier across the redirect round trip.
//
// LoadVerifier returns [shared.ErrVerifierMissing] when nothing has been saved.
type VerifierStore interface {
	SaveVerifier(ctx context.Context, verifier string) error
	LoadVerifier(ctx context.Context) (string, error)
}

// MemoryStore is a process-local [VerifierStore].
type MemoryStore struct {
	mu       sync.Mutex
	verifier string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveVerifier(_ context.Context, verifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifier = verifier
	return nil
}

func (m *MemoryStore) LoadVerifier(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verifier == "" {
		return "", shared.ErrVerifierMissing
	}
	return m.verifier, nil
}

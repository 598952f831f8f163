package workout

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ErrDraftNotFound is returned when a draft does not exist or belongs to another user.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore keeps in-progress workouts.
type DraftStore interface {
	Get(ctx context.Context, id uuid.UUID) (Draft, error)
	Put(ctx context.Context, d Draft) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID int) ([]Draft, error)
	// Count returns the number of stored drafts across all users.
	Count(ctx context.Context) (int, error)
}

// MemoryStore is a DraftStore held in process memory. Drafts are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[uuid.UUID]Draft)}
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return d.clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.ID] = d.clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}

// List returns the user's drafts, most recently started first.
func (m *MemoryStore) List(_ context.Context, userID int) ([]Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Draft{}
	for _, d := range m.drafts {
		if d.UserID == userID {
			out = append(out, d.clone())
		}
	}
	slices.SortFunc(out, func(a, b Draft) int { return b.StartedAt.Compare(a.StartedAt) })
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts), nil
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

// PoemStore is a simple in-memory implementation of domain.PoemArchive.
// It is NOT persistent and is only suitable for development / local mode.
type PoemStore struct {
	mu    sync.RWMutex
	poems map[domain.PoemID]*domain.Poem
	order []domain.PoemID // insertion order
}

func NewPoemStore() *PoemStore {
	return &PoemStore{
		poems: make(map[domain.PoemID]*domain.Poem),
	}
}

func (s *PoemStore) SavePoem(_ context.Context, poem *domain.Poem) error {
	if poem == nil || poem.ID == "" {
		return fmt.Errorf("poem id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.poems[poem.ID]; exists {
		return fmt.Errorf("poem %s already exists", poem.ID)
	}

	s.poems[poem.ID] = poem.Clone()
	s.order = append(s.order, poem.ID)
	return nil
}

func (s *PoemStore) GetPoem(_ context.Context, id domain.PoemID) (*domain.Poem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.poems[id]
	if !ok {
		return nil, fmt.Errorf("poem %s: %w", id, domain.ErrNotFound)
	}
	return p.Clone(), nil
}

// ListPoems returns up to limit poems, newest first. limit <= 0 means all.
func (s *PoemStore) ListPoems(_ context.Context, limit int) ([]*domain.Poem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}

	out := make([]*domain.Poem, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.poems[s.order[i]].Clone())
	}
	return out, nil
}

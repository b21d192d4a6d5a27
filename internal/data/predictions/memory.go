package predictions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cropsense/cropsense-backend/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory Store with the same key layout and
// ownership semantics as the Redis implementation. It backs tests and local
// runs without a REDIS_ADDR.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.Prediction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.Prediction)}
}

func (s *MemoryStore) Save(ctx context.Context, p *domain.Prediction) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil prediction")
	}
	if p.Timestamp == 0 {
		p.Timestamp = time.Now().UnixMilli()
	}
	p.ID = Key(p.UserID, p.Timestamp)

	s.mu.Lock()
	s.records[p.ID] = *p
	s.mu.Unlock()
	return p.ID, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, userID, id string) (*domain.Prediction, error) {
	if !OwnedBy(id, userID) {
		return nil, ErrForbidden
	}
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Prediction, error) {
	s.mu.RLock()
	preds := make([]*domain.Prediction, 0)
	for id, rec := range s.records {
		if OwnedBy(id, userID) {
			cp := rec
			preds = append(preds, &cp)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(preds)
	return clampToLimit(preds, limit), nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, userID, id string) error {
	if !OwnedBy(id, userID) {
		return ErrForbidden
	}
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)

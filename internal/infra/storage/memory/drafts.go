package memory

import (
	"context"
	"sync"
	"time"

	"carrental/internal/app/handlers/drafts"
)

// DraftStore keeps booking drafts for the lifetime of the process.
type DraftStore struct {
	mu    sync.RWMutex
	items map[string]*drafts.Draft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{items: make(map[string]*drafts.Draft)}
}

func (s *DraftStore) Save(_ context.Context, d *drafts.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[d.ID] = d
	return nil
}

func (s *DraftStore) ByID(_ context.Context, id string) (*drafts.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.items[id]
	if !ok {
		return nil, drafts.ErrDraftNotFound
	}
	return d, nil
}

// Prune drops drafts older than ttl and returns how many were removed.
func (s *DraftStore) Prune(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.items {
		if d.Expired(now, ttl) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

var _ drafts.Store = (*DraftStore)(nil)

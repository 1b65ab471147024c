package store

import (
	"context"
	"sync"

	"Cocktails/internal/cocktail"
	"Cocktails/pkg/watch"
)

type MemStore struct {
	mu    sync.RWMutex
	m     map[string]cocktail.Row
	feeds *feeds
}

func NewMemStore() *MemStore {
	return &MemStore{
		m:     map[string]cocktail.Row{},
		feeds: newFeeds(),
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Upsert(ctx context.Context, r cocktail.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.m[r.ID]
	s.m[r.ID] = cloneRow(r)

	s.feeds.publishID(r)
	if touchesFavorites(prev, existed, r) && s.feeds.watchingFavorites() {
		s.feeds.publishFavorites(s.favoritesLocked())
	}
	return nil
}

func (s *MemStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.m[id]
	return ok, nil
}

func (s *MemStore) WatchByID(ctx context.Context, id string) (*watch.Subscription[Lookup], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.m[id]
	initial := Lookup{Found: ok}
	if ok {
		initial.Row = cloneRow(r)
	}
	return s.feeds.subscribeID(ctx, id, initial), nil
}

func (s *MemStore) WatchFavorites(ctx context.Context) (*watch.Subscription[[]cocktail.Row], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.feeds.favorites.Subscribe(ctx, s.favoritesLocked()), nil
}

func (s *MemStore) favoritesLocked() []cocktail.Row {
	out := make([]cocktail.Row, 0, len(s.m))
	for _, r := range s.m {
		if r.IsFavorite {
			out = append(out, cloneRow(r))
		}
	}
	sortByID(out)
	return out
}

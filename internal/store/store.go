package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"Cocktails/internal/cocktail"
	"Cocktails/pkg/watch"
)

// Lookup is one emission of a by-id view. Found is false while no row exists for the id.
type Lookup struct {
	Row   cocktail.Row
	Found bool
}

type Store interface {
	Upsert(ctx context.Context, r cocktail.Row) error
	Exists(ctx context.Context, id string) (bool, error)
	WatchByID(ctx context.Context, id string) (*watch.Subscription[Lookup], error)
	WatchFavorites(ctx context.Context) (*watch.Subscription[[]cocktail.Row], error)
	Ping(ctx context.Context) error
}

// feeds holds the change-notification lists. Callers serialize access with their write lock,
// which also keeps emissions in write order.
type feeds struct {
	byID      map[string]*watch.Hub[Lookup]
	favorites *watch.Hub[[]cocktail.Row]
}

func newFeeds() *feeds {
	return &feeds{
		byID:      make(map[string]*watch.Hub[Lookup]),
		favorites: watch.NewHub[[]cocktail.Row](),
	}
}

func (f *feeds) subscribeID(ctx context.Context, id string, initial Lookup) *watch.Subscription[Lookup] {
	h, ok := f.byID[id]
	if !ok {
		h = watch.NewHub[Lookup]()
		f.byID[id] = h
	}
	return h.Subscribe(ctx, initial)
}

func (f *feeds) publishID(r cocktail.Row) {
	h, ok := f.byID[r.ID]
	if !ok {
		return
	}
	if h.Len() == 0 {
		delete(f.byID, r.ID)
		return
	}
	h.Publish(Lookup{Row: cloneRow(r), Found: true})
}

func (f *feeds) watchingFavorites() bool {
	return f.favorites.Len() > 0
}

func (f *feeds) publishFavorites(rows []cocktail.Row) {
	f.favorites.Publish(rows)
}

func touchesFavorites(prev cocktail.Row, existed bool, next cocktail.Row) bool {
	return next.IsFavorite || (existed && prev.IsFavorite)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", cocktail.ErrLocalStorage, op, err)
}

func cloneRow(r cocktail.Row) cocktail.Row {
	out := r
	out.Tags = clonePtr(r.Tags)
	out.ImageSource = clonePtr(r.ImageSource)
	for i := range r.Ingredients {
		out.Ingredients[i] = clonePtr(r.Ingredients[i])
		out.Measures[i] = clonePtr(r.Measures[i])
	}
	return out
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sortByID(rows []cocktail.Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
}

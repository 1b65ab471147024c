package repository

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"Cocktails/internal/cocktail"
	"Cocktails/internal/session"
	"Cocktails/internal/store"
	"Cocktails/pkg/watch"
)

const randomFillKey = "random"

type Remote interface {
	Random(ctx context.Context) (cocktail.Cocktail, error)
	Search(ctx context.Context, query string) ([]cocktail.Cocktail, error)
}

// Repository is the single read/write contract over the catalog, the session slot and the
// durable store. It never retries; every failure is returned to the caller as-is.
type Repository struct {
	Remote  Remote
	Session *session.Cache
	Store   store.Store
	Log     *zap.Logger

	fill singleflight.Group
}

func New(remote Remote, sess *session.Cache, st store.Store, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{Remote: remote, Session: sess, Store: st, Log: log}
}

// RandomCocktail returns the pick of the day. The first successful remote fetch is kept for the
// lifetime of the process; concurrent first calls share one remote request. Favorite writes do
// not touch the cached value.
func (r *Repository) RandomCocktail(ctx context.Context) (cocktail.Cocktail, error) {
	if c, ok := r.Session.Get(); ok {
		return c, nil
	}

	// The shared fill outlives any single waiter; the transport timeout bounds it.
	fillCtx := context.WithoutCancel(ctx)
	ch := r.fill.DoChan(randomFillKey, func() (any, error) {
		if c, ok := r.Session.Get(); ok {
			return c, nil
		}
		c, err := r.Remote.Random(fillCtx)
		if err != nil {
			r.Log.Warn("random fetch failed", zap.Error(err))
			return nil, err
		}
		r.Session.Set(c)
		r.Log.Debug("random pick cached", zap.String("id", c.ID))
		return c, nil
	})

	select {
	case <-ctx.Done():
		return cocktail.Cocktail{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cocktail.Cocktail{}, res.Err
		}
		return res.Val.(cocktail.Cocktail).Clone(), nil
	}
}

func (r *Repository) Search(ctx context.Context, query string) ([]cocktail.Cocktail, error) {
	return r.Remote.Search(ctx, query)
}

func (r *Repository) Save(ctx context.Context, c cocktail.Cocktail) error {
	row, err := cocktail.EncodeRow(c)
	if err != nil {
		return err
	}
	if err := r.Store.Upsert(ctx, row); err != nil {
		r.Log.Warn("save failed", zap.String("id", c.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) IsAvailable(ctx context.Context, id string) (bool, error) {
	return r.Store.Exists(ctx, id)
}

// ObserveByID follows one stored record. While no row exists nothing is emitted.
func (r *Repository) ObserveByID(ctx context.Context, id string) (*watch.Subscription[cocktail.Cocktail], error) {
	src, err := r.Store.WatchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return relay(ctx, src, func(l store.Lookup) (cocktail.Cocktail, bool) {
		if !l.Found {
			return cocktail.Cocktail{}, false
		}
		return cocktail.DecodeRow(l.Row), true
	}), nil
}

// ObserveFavorites follows the favorite subset, sorted by id.
func (r *Repository) ObserveFavorites(ctx context.Context) (*watch.Subscription[[]cocktail.Cocktail], error) {
	src, err := r.Store.WatchFavorites(ctx)
	if err != nil {
		return nil, err
	}
	return relay(ctx, src, func(rows []cocktail.Row) ([]cocktail.Cocktail, bool) {
		return cocktail.DecodeRows(rows), true
	}), nil
}

// relay maps a store view onto a new subscription; ok=false drops the emission.
// Closing either side ends both.
func relay[S, T any](ctx context.Context, src *watch.Subscription[S], fn func(S) (T, bool)) *watch.Subscription[T] {
	hub := watch.NewHub[T]()
	out := hub.Subscribe(ctx)

	go func() {
		defer src.Close()
		for {
			select {
			case v, ok := <-src.C:
				if !ok {
					out.Close()
					return
				}
				if mapped, keep := fn(v); keep {
					hub.Publish(mapped)
				}
			case <-out.Done():
				return
			}
		}
	}()
	return out
}

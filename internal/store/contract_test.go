package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Cocktails/internal/cocktail"
	"Cocktails/pkg/watch"
)

// runContract exercises the behaviour every Store backend must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("upsert then exists", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ok, err := s.Exists(ctx, "c1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", false)))

		ok, err = s.Exists(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		r := testRow("c1", "Mojito", true)

		require.NoError(t, s.Upsert(ctx, r))
		require.NoError(t, s.Upsert(ctx, r))

		sub, err := s.WatchFavorites(ctx)
		require.NoError(t, err)
		t.Cleanup(sub.Close)

		favs := next(t, sub)
		require.Len(t, favs, 1)
		assert.Equal(t, r, favs[0])
	})

	t.Run("by id emits absent then every write in order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		sub, err := s.WatchByID(ctx, "c1")
		require.NoError(t, err)
		t.Cleanup(sub.Close)

		first := next(t, sub)
		assert.False(t, first.Found)

		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", false)))
		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", true)))
		require.NoError(t, s.Upsert(ctx, testRow("c2", "Other", true)))
		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", false)))

		got := []bool{next(t, sub).Row.IsFavorite, next(t, sub).Row.IsFavorite, next(t, sub).Row.IsFavorite}
		assert.Equal(t, []bool{false, true, false}, got)
		assertQuiet(t, sub)
	})

	t.Run("by id emits existing row first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		r := testRow("c1", "Mojito", true)
		require.NoError(t, s.Upsert(ctx, r))

		sub, err := s.WatchByID(ctx, "c1")
		require.NoError(t, err)
		t.Cleanup(sub.Close)

		got := next(t, sub)
		assert.True(t, got.Found)
		assert.Equal(t, r, got.Row)
	})

	t.Run("favorites re-emit on writes to the favorite subset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		sub, err := s.WatchFavorites(ctx)
		require.NoError(t, err)
		t.Cleanup(sub.Close)
		assert.Empty(t, next(t, sub))

		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", false)))
		assertQuiet(t, sub)

		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", true)))
		favs := next(t, sub)
		require.Len(t, favs, 1)
		assert.Equal(t, "c1", favs[0].ID)

		require.NoError(t, s.Upsert(ctx, testRow("c2", "Daiquiri", true)))
		assert.Len(t, next(t, sub), 2)

		// unfavoriting keeps the row but leaves the subset
		require.NoError(t, s.Upsert(ctx, testRow("c1", "Mojito", false)))
		favs = next(t, sub)
		require.Len(t, favs, 1)
		assert.Equal(t, "c2", favs[0].ID)

		ok, err := s.Exists(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("cancelled context ends view", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		sub, err := s.WatchByID(ctx, "c1")
		require.NoError(t, err)
		next(t, sub)

		cancel()
		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("view still open after cancel")
		}

		require.NoError(t, s.Upsert(context.Background(), testRow("c1", "Mojito", false)))
	})
}

func next[T any](t *testing.T, sub *watch.Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C:
		require.True(t, ok, "view closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, sub *watch.Subscription[T]) {
	t.Helper()
	select {
	case v := <-sub.C:
		t.Fatalf("unexpected emission: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func testRow(id, name string, favorite bool) cocktail.Row {
	r, err := cocktail.EncodeRow(cocktail.Cocktail{
		ID:           id,
		Name:         name,
		Tags:         []string{"IBA"},
		Category:     "Cocktail",
		Type:         "Alcoholic",
		GlassType:    "Highball glass",
		Instructions: "Muddle mint.",
		ThumbnailImg: "https://example.com/" + id + ".jpg",
		Ingredients:  []cocktail.Ingredient{{Name: "Rum", Measure: "2 oz"}, {Name: "Mint"}},
		IsFavorite:   favorite,
	})
	if err != nil {
		panic(err)
	}
	return r
}

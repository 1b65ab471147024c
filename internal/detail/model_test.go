package detail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Cocktails/internal/cocktail"
	"Cocktails/internal/repository"
	"Cocktails/internal/session"
	"Cocktails/internal/store"
	"Cocktails/pkg/watch"
)

type repoMock struct {
	mock.Mock
}

func (m *repoMock) ObserveByID(ctx context.Context, id string) (*watch.Subscription[cocktail.Cocktail], error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*watch.Subscription[cocktail.Cocktail])
	return sub, args.Error(1)
}

func (m *repoMock) Favorite(ctx context.Context, c cocktail.Cocktail) error {
	return m.Called(ctx, c).Error(0)
}

func (m *repoMock) Unfavorite(ctx context.Context, c cocktail.Cocktail) error {
	return m.Called(ctx, c).Error(0)
}

func sidecar() cocktail.Cocktail {
	return cocktail.Cocktail{
		ID:           "12196",
		Name:         "Sidecar",
		Tags:         []string{"IBA", "Classic"},
		Category:     "Ordinary Drink",
		Type:         "Alcoholic",
		GlassType:    "Cocktail glass",
		Instructions: "Shake with ice and strain.",
		ThumbnailImg: "https://example.com/sidecar.jpg",
		Ingredients: []cocktail.Ingredient{
			{Name: "Cognac", Measure: "2 oz"},
			{Name: "Triple sec", Measure: "1/2 oz"},
			{Name: "Lemon", Measure: "1 oz"},
		},
	}
}

func newRepo() *repository.Repository {
	return repository.New(nil, session.NewCache(), store.NewMemStore(), nil)
}

func waitState(t *testing.T, m *Model, match func(State) bool) State {
	t.Helper()
	var got State
	require.Eventually(t, func() bool {
		got = m.Snapshot()
		return match(got)
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestOpen_EmptyIDIsError(t *testing.T) {
	m := New(newRepo(), nil)
	m.Open(context.Background(), "")
	assert.Equal(t, Failed, m.Snapshot().Phase)
}

func TestOpen_LoadingUntilStored(t *testing.T) {
	repo := newRepo()
	m := New(repo, nil)
	t.Cleanup(m.Close)
	ctx := context.Background()

	m.Open(ctx, "12196")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, Loading, m.Snapshot().Phase)

	require.NoError(t, repo.Save(ctx, sidecar()))
	s := waitState(t, m, func(s State) bool { return s.Phase == Loaded })
	assert.Equal(t, sidecar(), *s.Cocktail)
}

func TestToggleFavorite_RoundTrip(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sidecar()))

	m := New(repo, nil)
	t.Cleanup(m.Close)
	m.Open(ctx, "12196")
	waitState(t, m, func(s State) bool { return s.Phase == Loaded })

	require.NoError(t, m.ToggleFavorite(ctx))
	s := waitState(t, m, func(s State) bool { return s.Cocktail != nil && s.Cocktail.IsFavorite })
	assert.Equal(t, "Sidecar", s.Cocktail.Name)

	require.NoError(t, m.ToggleFavorite(ctx))
	s = waitState(t, m, func(s State) bool { return s.Cocktail != nil && !s.Cocktail.IsFavorite })
	assert.Equal(t, sidecar(), *s.Cocktail)
}

func TestToggleFavorite_NotLoaded(t *testing.T) {
	m := New(newRepo(), nil)
	assert.ErrorIs(t, m.ToggleFavorite(context.Background()), ErrNotLoaded)
}

func TestToggleFavorite_FailureIsDismissible(t *testing.T) {
	hub := watch.NewHub[cocktail.Cocktail]()
	sub := hub.Subscribe(context.Background(), sidecar())

	rm := new(repoMock)
	rm.On("ObserveByID", mock.Anything, "12196").Return(sub, nil)
	rm.On("Favorite", mock.Anything, mock.MatchedBy(func(c cocktail.Cocktail) bool { return c.ID == "12196" })).
		Return(cocktail.ErrLocalStorage)

	m := New(rm, nil)
	t.Cleanup(m.Close)
	m.Open(context.Background(), "12196")
	waitState(t, m, func(s State) bool { return s.Phase == Loaded })

	require.NoError(t, m.ToggleFavorite(context.Background()))
	s := m.Snapshot()
	assert.Equal(t, cocktail.CodeFavoriteFailed, s.Err)
	assert.Equal(t, Loaded, s.Phase)

	m.ClearError()
	assert.Equal(t, cocktail.CodeNone, m.Snapshot().Err)
	rm.AssertExpectations(t)
}

func TestOpen_StorageFault(t *testing.T) {
	rm := new(repoMock)
	rm.On("ObserveByID", mock.Anything, "1").Return(nil, cocktail.ErrLocalStorage)

	m := New(rm, nil)
	m.Open(context.Background(), "1")

	s := m.Snapshot()
	assert.Equal(t, Failed, s.Phase)
	assert.Equal(t, cocktail.CodeLocalStorage, s.Err)
}

func TestSubscribe_StreamsTransitions(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sidecar()))

	m := New(repo, nil)
	t.Cleanup(m.Close)

	sub := m.Subscribe(ctx)
	defer sub.Close()
	m.Open(ctx, "12196")

	var phases []Phase
	timeout := time.After(2 * time.Second)
	for len(phases) == 0 || phases[len(phases)-1] != Loaded {
		select {
		case s := <-sub.C:
			phases = append(phases, s.Phase)
		case <-timeout:
			t.Fatalf("phases so far: %v", phases)
		}
	}
	assert.Equal(t, Loading, phases[0])
}

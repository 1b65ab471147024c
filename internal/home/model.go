package home

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
	"Cocktails/internal/search"
	"Cocktails/pkg/watch"
)

var ErrUnknownIntent = errors.New("unknown intent")

type Repository interface {
	RandomCocktail(ctx context.Context) (cocktail.Cocktail, error)
	Search(ctx context.Context, query string) ([]cocktail.Cocktail, error)
	Save(ctx context.Context, c cocktail.Cocktail) error
	IsAvailable(ctx context.Context, id string) (bool, error)
	ObserveFavorites(ctx context.Context) (*watch.Subscription[[]cocktail.Cocktail], error)
}

// Model holds the home screen state. Intents mutate it; every change is published to
// subscribers as a full snapshot.
type Model struct {
	repo     Repository
	pipeline *search.Pipeline
	log      *zap.Logger

	mu    sync.Mutex
	state State
	hub   *watch.Hub[State]

	life      context.Context
	stop      context.CancelFunc
	favorites *watch.Subscription[[]cocktail.Cocktail]
}

func New(repo Repository, log *zap.Logger, opts ...search.Option) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	life, stop := context.WithCancel(context.Background())

	m := &Model{
		repo:  repo,
		log:   log,
		state: initialState(),
		hub:   watch.NewHub[State](),
		life:  life,
		stop:  stop,
	}
	opts = append([]search.Option{search.WithLogger(log.Named("search"))}, opts...)
	m.pipeline = search.New(repo, m.onSearch, opts...)
	return m
}

// Run drives the search pipeline until ctx is done, then releases the favorites view.
func (m *Model) Run(ctx context.Context) error {
	defer m.Close()
	return m.pipeline.Run(ctx)
}

func (m *Model) Close() {
	m.stop()

	m.mu.Lock()
	fav := m.favorites
	m.favorites = nil
	m.mu.Unlock()

	if fav != nil {
		fav.Close()
	}
}

func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe streams snapshots, starting with the current one.
func (m *Model) Subscribe(ctx context.Context) *watch.Subscription[State] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hub.Subscribe(ctx, m.state.clone())
}

// Handle applies one intent. Failures of the action land in State.Err; the returned error
// only reports an intent the model does not understand or a cancelled caller.
func (m *Model) Handle(ctx context.Context, in Intent) error {
	switch in := in.(type) {
	case LoadToday:
		return m.loadToday(ctx)
	case LoadFavorites:
		return m.loadFavorites()
	case Select:
		return m.selectCocktail(ctx, in.Cocktail)
	case QueryChanged:
		m.queryChanged(in.Text)
	case ClearSearch:
		m.queryChanged("")
	case ManualSearch:
		m.pipeline.SearchNow()
	case ClearError:
		m.update(func(s *State) { s.Err = cocktail.CodeNone })
	default:
		return fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
	return nil
}

func (m *Model) loadToday(ctx context.Context) error {
	c, err := m.repo.RandomCocktail(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn("load today failed", zap.Error(err))
		m.update(func(s *State) { s.Err = cocktail.CodeTodayFailed })
		return nil
	}
	m.update(func(s *State) { s.Today = &c })
	return nil
}

func (m *Model) loadFavorites() error {
	sub, err := m.repo.ObserveFavorites(m.life)
	if err != nil {
		m.log.Warn("load favorites failed", zap.Error(err))
		m.update(func(s *State) { s.Err = cocktail.CodeFavoritesFailed })
		return nil
	}

	m.mu.Lock()
	prev := m.favorites
	m.favorites = sub
	m.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	go func() {
		for favs := range sub.C {
			sorted := sortByName(favs)
			m.update(func(s *State) {
				// a replaced view may still deliver one late value
				if m.favorites == sub {
					s.Favorites = sorted
				}
			})
		}
	}()
	return nil
}

// selectCocktail stores a record the first time it is viewed.
func (m *Model) selectCocktail(ctx context.Context, c cocktail.Cocktail) error {
	ok, err := m.repo.IsAvailable(ctx, c.ID)
	if err == nil && ok {
		return nil
	}
	if err != nil {
		m.log.Debug("availability check failed, saving anyway", zap.String("id", c.ID), zap.Error(err))
	}

	if err := m.repo.Save(ctx, c); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.update(func(s *State) { s.Err = cocktail.CodeSelectFailed })
	}
	return nil
}

func (m *Model) queryChanged(text string) {
	m.update(func(s *State) { s.Query = text })
	m.pipeline.SetQuery(text)
}

func (m *Model) onSearch(st search.State) {
	m.update(func(s *State) {
		s.Searching = st.Searching
		s.Results = st.Results
		if st.Phase == search.Failed {
			s.Err = cocktail.CodeSearchFailed
		}
	})
}

func (m *Model) update(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.state)
	m.hub.Publish(m.state.clone())
}

package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
	"Cocktails/pkg/watch"
)

var ErrNotLoaded = errors.New("cocktail not loaded")

type Phase uint8

const (
	Loading Phase = iota
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is Loading, Loaded with a Cocktail, or Failed. Err is a dismissible notice that can
// accompany any phase.
type State struct {
	Phase    Phase              `json:"phase"`
	Cocktail *cocktail.Cocktail `json:"cocktail,omitempty"`
	Err      cocktail.ErrorCode `json:"error,omitempty"`
}

func (s State) clone() State {
	out := s
	if s.Cocktail != nil {
		c := s.Cocktail.Clone()
		out.Cocktail = &c
	}
	return out
}

type Repository interface {
	ObserveByID(ctx context.Context, id string) (*watch.Subscription[cocktail.Cocktail], error)
	Favorite(ctx context.Context, c cocktail.Cocktail) error
	Unfavorite(ctx context.Context, c cocktail.Cocktail) error
}

type Model struct {
	repo Repository
	log  *zap.Logger

	mu     sync.Mutex
	state  State
	hub    *watch.Hub[State]
	follow *watch.Subscription[cocktail.Cocktail]
}

func New(repo Repository, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{
		repo:  repo,
		log:   log,
		state: State{Phase: Loading},
		hub:   watch.NewHub[State](),
	}
}

// Open follows the stored record for id until ctx is done or another Open replaces it.
// The state stays Loading while no row exists.
func (m *Model) Open(ctx context.Context, id string) {
	m.release()

	if id == "" {
		m.set(State{Phase: Failed})
		return
	}
	m.set(State{Phase: Loading})

	sub, err := m.repo.ObserveByID(ctx, id)
	if err != nil {
		m.log.Warn("open detail failed", zap.String("id", id), zap.Error(err))
		m.set(State{Phase: Failed, Err: cocktail.Code(err)})
		return
	}

	m.mu.Lock()
	m.follow = sub
	m.mu.Unlock()

	go func() {
		for c := range sub.C {
			m.update(func(s *State) {
				if m.follow != sub {
					return
				}
				s.Phase = Loaded
				s.Cocktail = &c
			})
		}
	}()
}

// ToggleFavorite unfavorites a favorite and favorites anything else. The new flag arrives
// through the followed record.
func (m *Model) ToggleFavorite(ctx context.Context) error {
	snap := m.Snapshot()
	if snap.Phase != Loaded || snap.Cocktail == nil {
		return ErrNotLoaded
	}

	c := *snap.Cocktail
	var err error
	if c.IsFavorite {
		err = m.repo.Unfavorite(ctx, c)
	} else {
		err = m.repo.Favorite(ctx, c)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn("toggle favorite failed", zap.String("id", c.ID), zap.Error(err))
		m.update(func(s *State) { s.Err = cocktail.CodeFavoriteFailed })
	}
	return nil
}

func (m *Model) ClearError() {
	m.update(func(s *State) { s.Err = cocktail.CodeNone })
}

func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Model) Subscribe(ctx context.Context) *watch.Subscription[State] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hub.Subscribe(ctx, m.state.clone())
}

func (m *Model) Close() {
	m.release()
}

func (m *Model) release() {
	m.mu.Lock()
	sub := m.follow
	m.follow = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func (m *Model) set(s State) {
	m.update(func(cur *State) { *cur = s })
}

func (m *Model) update(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.state)
	m.hub.Publish(m.state.clone())
}

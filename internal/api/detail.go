package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Cocktails/internal/detail"
	"Cocktails/pkg/kit"
	"Cocktails/pkg/watch"
)

// stored reports whether id has a row and writes the error response when it does not.
func (s *Server) stored(w http.ResponseWriter, r *http.Request, id string) bool {
	ok, err := s.deps.Records.IsAvailable(r.Context(), id)
	if err != nil {
		s.log.Error("availability check failed", zap.String("id", id), zap.Error(err))
		kit.WriteError(w, r, statusFor(err), "server error", nil)
		return false
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return false
	}
	return true
}

// openDetail opens a model for id and waits until it leaves Loading.
func (s *Server) openDetail(ctx context.Context, id string) (*detail.Model, detail.State, error) {
	m := detail.New(s.deps.Records, s.log.Named("detail"))

	ctx, cancel := context.WithTimeout(ctx, detailLoadTimeout)
	defer cancel()

	sub := m.Subscribe(ctx)
	defer sub.Close()
	m.Open(context.WithoutCancel(ctx), id)

	st, err := waitFor(ctx, sub, func(st detail.State) bool { return st.Phase != detail.Loading })
	if err != nil {
		m.Close()
		return nil, detail.State{}, err
	}
	return m, st, nil
}

func (s *Server) getCocktail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.stored(w, r, id) {
		return
	}

	m, st, err := s.openDetail(r.Context(), id)
	if err != nil {
		kit.WriteError(w, r, http.StatusGatewayTimeout, "detail not loaded", map[string]any{"id": id})
		return
	}
	defer m.Close()

	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.stored(w, r, id) {
		return
	}

	m, st, err := s.openDetail(r.Context(), id)
	if err != nil {
		kit.WriteError(w, r, http.StatusGatewayTimeout, "detail not loaded", map[string]any{"id": id})
		return
	}
	defer m.Close()

	if st.Phase != detail.Loaded {
		kit.WriteJSON(w, http.StatusConflict, st)
		return
	}
	was := st.Cocktail.IsFavorite

	ctx, cancel := context.WithTimeout(r.Context(), detailLoadTimeout)
	defer cancel()

	sub := m.Subscribe(ctx)
	defer sub.Close()

	if err := m.ToggleFavorite(ctx); err != nil {
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
		return
	}

	st, err = waitFor(ctx, sub, func(st detail.State) bool {
		return st.Err != "" || (st.Cocktail != nil && st.Cocktail.IsFavorite != was)
	})
	if err != nil {
		kit.WriteError(w, r, http.StatusGatewayTimeout, "favorite not confirmed", map[string]any{"id": id})
		return
	}
	if st.Err != "" {
		kit.WriteCodedError(w, r, http.StatusInternalServerError, "favorite failed", string(st.Err), nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, st)
}

type detailMessage struct {
	Type string `json:"type"`
}

// cocktailStream pushes detail states and accepts {"type":"toggle_favorite"} and
// {"type":"clear_error"}.
func (s *Server) cocktailStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.stored(w, r, id) {
		return
	}

	m := detail.New(s.deps.Records, s.log.Named("detail"))
	defer m.Close()

	serveStream(s, w, r,
		func(ctx context.Context) *watch.Subscription[detail.State] {
			sub := m.Subscribe(ctx)
			m.Open(ctx, id)
			return sub
		},
		func(ctx context.Context, msg []byte) error {
			var in detailMessage
			if err := json.Unmarshal(msg, &in); err != nil {
				return fmt.Errorf("%w: %w", errBadIntent, err)
			}
			switch in.Type {
			case "toggle_favorite":
				return m.ToggleFavorite(ctx)
			case "clear_error":
				m.ClearError()
				return nil
			default:
				return fmt.Errorf("%w: unknown type %q", errBadIntent, in.Type)
			}
		},
	)
}

var errTimeout = errors.New("timed out")

func waitFor[T any](ctx context.Context, sub *watch.Subscription[T], match func(T) bool) (T, error) {
	var zero T
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return zero, errTimeout
			}
			return zero, ctx.Err()
		case v, ok := <-sub.C:
			if !ok {
				return zero, errTimeout
			}
			if match(v) {
				return v, nil
			}
		}
	}
}


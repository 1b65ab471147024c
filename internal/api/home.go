package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
	"Cocktails/internal/home"
	"Cocktails/pkg/kit"
	"Cocktails/pkg/watch"
)

var errBadIntent = errors.New("bad intent")

type intentRequest struct {
	Type     string             `json:"type"`
	Query    string             `json:"query,omitempty"`
	Cocktail *cocktail.Cocktail `json:"cocktail,omitempty"`
}

func (in intentRequest) decode() (home.Intent, error) {
	switch in.Type {
	case "load_today":
		return home.LoadToday{}, nil
	case "load_favorites":
		return home.LoadFavorites{}, nil
	case "select":
		if in.Cocktail == nil || in.Cocktail.ID == "" {
			return nil, fmt.Errorf("%w: select needs a cocktail with an id", errBadIntent)
		}
		return home.Select{Cocktail: *in.Cocktail}, nil
	case "query_changed":
		return home.QueryChanged{Text: in.Query}, nil
	case "manual_search":
		return home.ManualSearch{}, nil
	case "clear_search":
		return home.ClearSearch{}, nil
	case "clear_error":
		return home.ClearError{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", errBadIntent, in.Type)
	}
}

func parseIntent(b []byte) (home.Intent, error) {
	var in intentRequest
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadIntent, err)
	}
	return in.decode()
}

func (s *Server) getHome(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.deps.Home.Snapshot())
}

func (s *Server) postIntent(w http.ResponseWriter, r *http.Request) {
	var in intentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}

	intent, err := in.decode()
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.deps.Home.Handle(r.Context(), intent); err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.log.Warn("intent failed", zap.String("type", in.Type), zap.Error(err))
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.deps.Home.Snapshot())
}

// homeStream pushes home snapshots and accepts intents in the same format as POST /home/intents.
func (s *Server) homeStream(w http.ResponseWriter, r *http.Request) {
	serveStream(s, w, r,
		func(ctx context.Context) *watch.Subscription[home.State] {
			return s.deps.Home.Subscribe(ctx)
		},
		func(ctx context.Context, msg []byte) error {
			intent, err := parseIntent(msg)
			if err != nil {
				return err
			}
			return s.deps.Home.Handle(ctx, intent)
		},
	)
}

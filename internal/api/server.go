package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
	"Cocktails/internal/detail"
	"Cocktails/internal/home"
	"Cocktails/pkg/kit"
)

const (
	readyTimeout      = 1 * time.Second
	detailLoadTimeout = 2 * time.Second
	maxBodyBytes      = 1 << 20
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	CORSOrigins      []string
	IntentRatePerMin int
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Records is what the detail endpoints need from the repository.
type Records interface {
	detail.Repository
	IsAvailable(ctx context.Context, id string) (bool, error)
}

type Deps struct {
	Home    *home.Model
	Records Records
	Store   Pinger
}

type Server struct {
	deps Deps
	log  *zap.Logger

	upgrader websocket.Upgrader
}

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	log := httpDeps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		deps: deps,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(httpDeps.CORSOrigins),
		},
	}

	r := chi.NewRouter()
	setupMiddleware(r, log)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/home", s.getHome)
	r.Get("/home/ws", s.homeStream)
	r.Group(func(ir chi.Router) {
		if httpDeps.IntentRatePerMin > 0 {
			ir.Use(kit.NewIPRateLimiter(httpDeps.IntentRatePerMin, time.Minute).Middleware)
		}
		ir.Post("/home/intents", s.postIntent)
	})

	r.Get("/cocktails/{id}", s.getCocktail)
	r.Post("/cocktails/{id}/toggle-favorite", s.toggleFavorite)
	r.Get("/cocktails/{id}/ws", s.cocktailStream)

	return corsHandler(httpDeps.CORSOrigins).Handler(r)
}

func setupMiddleware(r *chi.Mux, log *zap.Logger) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}

// checkOrigin admits browsers from the configured origins; with none configured every
// origin is accepted, matching the CORS policy.
func checkOrigin(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.deps.Store.Ping(ctx); err != nil {
		s.log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// statusFor maps a facade error onto a response status.
func statusFor(err error) int {
	switch cocktail.Code(err) {
	case cocktail.CodeRemoteUnavailable:
		return http.StatusBadGateway
	case cocktail.CodeMalformedRecord:
		return http.StatusBadGateway
	case cocktail.CodeCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

package cli

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Cocktails/internal/config"
	"Cocktails/internal/remote"
	"Cocktails/internal/repository"
	"Cocktails/internal/session"
	"Cocktails/internal/store"
	"Cocktails/pkg/kit"
)

// app is the wired process: one owned store, one session cache, one facade.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	store store.Store
	repo  *repository.Repository

	db *sql.DB
}

func newApp(ctx context.Context, cfg config.Config, log *zap.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.DatabaseURL == "" {
		log.Info("using in-memory store")
		a.store = store.NewMemStore()
	} else {
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		ps := store.NewPostgresStore(db)
		ps.Log = log.Named("store")
		if err := ps.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.store = ps
	}

	opts := []remote.Option{
		remote.WithTimeout(cfg.HTTPTimeout),
		remote.WithRateLimit(cfg.RemoteRPS),
		remote.WithLogger(log.Named("remote")),
	}
	if reg != nil {
		opts = append(opts, remote.WithMetrics(kit.NewClientMetrics(reg)))
	}
	client := remote.NewClient(cfg.CatalogURL, opts...)

	a.repo = repository.New(client, session.NewCache(), a.store, log.Named("repository"))
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close db failed", zap.Error(err))
		}
	}
}

// commandLogger tags every line of a one-shot command with a session id.
func commandLogger(cfg config.Config, command string) *zap.Logger {
	return kit.NewLogger(service, cfg.LogLevel).With(
		zap.String("command", command),
		zap.String("session", uuid.NewString()),
	)
}

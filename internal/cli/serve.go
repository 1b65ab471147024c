package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Cocktails/internal/api"
	"Cocktails/internal/home"
	"Cocktails/internal/search"
	"Cocktails/pkg/kit"
)

const service = "cocktails"

func newServeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", "", "listen address")
	fl.DurationVar(&f.debounce, "debounce", 0, "search quiet window")
	fl.StringVar(&f.metricsToken, "metrics-token", "", "bearer token for /metrics")
	fl.IntVar(&f.intentRate, "intent-rate", 0, "intents per minute per client ip")
	return cmd
}

func runServe(ctx context.Context, f *flags) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newApp(ctx, cfg, log, reg)
	if err != nil {
		log.Error("init failed", zap.Error(err))
		return err
	}
	defer a.Close()

	model := home.New(a.repo, log.Named("home"), search.WithDebounce(cfg.SearchDebounce))

	h := api.NewHandler(
		api.Deps{Home: model, Records: a.repo, Store: a.store},
		api.HTTPDeps{
			Log:              log,
			Service:          service,
			Registry:         reg,
			MetricsEnabled:   cfg.MetricsEnabled,
			MetricsToken:     cfg.MetricsToken,
			CORSOrigins:      cfg.CORSOrigins,
			IntentRatePerMin: cfg.IntentRatePerMin,
		},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := model.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return kit.RunHTTPServer(gctx, cfg.Addr, h, log)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

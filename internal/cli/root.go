package cli

import (
	"time"

	"github.com/spf13/cobra"

	"Cocktails/internal/config"
)

// flags holds command-line overrides. Zero values leave the environment's setting in place.
type flags struct {
	envFile     string
	catalogURL  string
	databaseURL string
	logLevel    string
	httpTimeout time.Duration
	remoteRPS   float64

	addr         string
	debounce     time.Duration
	metricsToken string
	intentRate   int
}

func NewRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "cocktails",
		Short: "Cocktail catalog with a local favorites store.",
		Long: `cocktails serves the cocktail catalog with a cached pick of the day,
debounced search and a durable favorites store.

Settings come from the environment (optionally a .env file); flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file to read before the environment")
	pf.StringVar(&f.catalogURL, "catalog-url", "", "catalog API base url")
	pf.StringVar(&f.databaseURL, "database-url", "", "postgres url; empty keeps records in memory")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.DurationVar(&f.httpTimeout, "http-timeout", 0, "timeout for catalog requests")
	pf.Float64Var(&f.remoteRPS, "remote-rps", 0, "catalog requests per second (0 for unlimited)")

	root.AddCommand(
		newServeCmd(f),
		newTodayCmd(f),
		newSearchCmd(f),
		newFavoritesCmd(f),
		newFavoriteCmd(f, true),
		newFavoriteCmd(f, false),
	)
	return root
}

// loadConfig reads the environment and applies flag overrides.
func (f *flags) loadConfig() (config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return config.Config{}, err
	}

	if f.catalogURL != "" {
		cfg.CatalogURL = f.catalogURL
	}
	if f.databaseURL != "" {
		cfg.DatabaseURL = f.databaseURL
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.httpTimeout > 0 {
		cfg.HTTPTimeout = f.httpTimeout
	}
	if f.remoteRPS > 0 {
		cfg.RemoteRPS = f.remoteRPS
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.debounce > 0 {
		cfg.SearchDebounce = f.debounce
	}
	if f.metricsToken != "" {
		cfg.MetricsToken = f.metricsToken
	}
	if f.intentRate > 0 {
		cfg.IntentRatePerMin = f.intentRate
	}
	return cfg, cfg.Validate()
}

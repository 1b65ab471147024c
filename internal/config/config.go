package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Cocktails/internal/remote"
	"Cocktails/internal/search"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr             string
	CatalogURL       string
	DatabaseURL      string
	HTTPTimeout      time.Duration
	SearchDebounce   time.Duration
	RemoteRPS        float64
	LogLevel         string
	MetricsEnabled   bool
	MetricsToken     string
	CORSOrigins      []string
	IntentRatePerMin int
}

func Default() Config {
	return Config{
		Addr:             ":8080",
		CatalogURL:       remote.DefaultBaseURL,
		HTTPTimeout:      5 * time.Second,
		SearchDebounce:   search.DefaultDebounce,
		LogLevel:         "info",
		MetricsEnabled:   true,
		IntentRatePerMin: 120,
	}
}

// Load reads the environment on top of the defaults. Values from the given .env files
// (".env" when none are named) never override variables that are already set; missing
// files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, f, err)
		}
	}

	c := Default()
	c.Addr = getenv("ADDR", c.Addr)
	c.CatalogURL = getenv("CATALOG_URL", c.CatalogURL)
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.MetricsToken = os.Getenv("METRICS_TOKEN")
	c.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	var errs []error
	c.HTTPTimeout = duration("HTTP_TIMEOUT", c.HTTPTimeout, &errs)
	c.SearchDebounce = duration("SEARCH_DEBOUNCE", c.SearchDebounce, &errs)
	c.RemoteRPS = float("REMOTE_RPS", c.RemoteRPS, &errs)
	c.MetricsEnabled = boolean("METRICS_ENABLED", c.MetricsEnabled, &errs)
	c.IntentRatePerMin = integer("INTENT_RATE_PER_MIN", c.IntentRatePerMin, &errs)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	u, err := url.Parse(c.CatalogURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: CATALOG_URL %q must be an absolute http(s) url", ErrInvalidConfig, c.CatalogURL)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: ADDR is empty", ErrInvalidConfig)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.SearchDebounce <= 0 {
		return fmt.Errorf("%w: SEARCH_DEBOUNCE must be positive", ErrInvalidConfig)
	}
	if c.RemoteRPS < 0 {
		return fmt.Errorf("%w: REMOTE_RPS must not be negative", ErrInvalidConfig)
	}
	if c.IntentRatePerMin < 0 {
		return fmt.Errorf("%w: INTENT_RATE_PER_MIN must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func duration(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, k, err))
		return def
	}
	return d
}

func float(k string, def float64, errs *[]error) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, k, err))
		return def
	}
	return f
}

func integer(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, k, err))
		return def
	}
	return n
}

func boolean(k string, def bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, k, err))
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"Cocktails/internal/cocktail"
	"Cocktails/pkg/kit"
)

const (
	DefaultBaseURL = "https://www.thecocktaildb.com/api/json/v1/1"

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 4 << 20

	opRandom = "random"
	opSearch = "search"
)

var ErrEmptyRandom = errors.New("random response carried no drink")

// Client talks to the catalog service. It holds no state between calls.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Metrics *kit.ClientMetrics
	Log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.HTTP = c } }

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.HTTP = &http.Client{Timeout: d} }
}

// WithRateLimit throttles outbound calls; rps <= 0 disables throttling.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithMetrics(m *kit.ClientMetrics) Option { return func(cl *Client) { cl.Metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(cl *Client) { cl.Log = l } }

func NewClient(baseURL string, opts ...Option) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	c := &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Random(ctx context.Context) (cocktail.Cocktail, error) {
	drinks, err := c.get(ctx, opRandom, c.BaseURL+"/random.php")
	if err != nil {
		return cocktail.Cocktail{}, err
	}
	if len(drinks) == 0 {
		return cocktail.Cocktail{}, fmt.Errorf("%w: %w", cocktail.ErrMalformedRecord, ErrEmptyRandom)
	}
	return drinks[0], nil
}

func (c *Client) Search(ctx context.Context, query string) ([]cocktail.Cocktail, error) {
	q := url.Values{"s": []string{query}}
	return c.get(ctx, opSearch, c.BaseURL+"/search.php?"+q.Encode())
}

func (c *Client) get(ctx context.Context, op, target string) (out []cocktail.Cocktail, err error) {
	start := time.Now()
	defer func() { c.Metrics.Observe(op, outcome(err), start) }()

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, unavailable(ctx, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %w", cocktail.ErrRemoteUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if c.Log != nil {
			c.Log.Debug("catalog request failed", zap.String("op", op), zap.Error(err))
		}
		return nil, unavailable(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s status=%d", cocktail.ErrRemoteUnavailable, op, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unavailable(ctx, err)
	}

	out, err = cocktail.DecodeResponse(body)
	if err != nil {
		if c.Log != nil {
			c.Log.Warn("catalog payload rejected", zap.String("op", op), zap.Error(err))
		}
		return nil, err
	}
	return out, nil
}

// unavailable keeps cancellation by the caller distinguishable from service faults.
func unavailable(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", cocktail.ErrRemoteUnavailable, err)
}

func outcome(err error) string {
	switch cocktail.Code(err) {
	case cocktail.CodeNone:
		return "ok"
	case cocktail.CodeMalformedRecord:
		return "malformed"
	case cocktail.CodeCanceled:
		return "canceled"
	default:
		return "unavailable"
	}
}

package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
)

const DefaultDebounce = 300 * time.Millisecond

var ErrRunning = errors.New("search pipeline already running")

type Searcher interface {
	Search(ctx context.Context, query string) ([]cocktail.Cocktail, error)
}

type Option func(*Pipeline)

func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// Pipeline turns raw query edits into debounced searches. Only the latest edit is kept;
// every published State belongs to the newest issued generation.
type Pipeline struct {
	searcher Searcher
	publish  func(State)
	debounce time.Duration
	log      *zap.Logger

	mu   sync.Mutex
	text string

	edit    chan string
	now     chan struct{}
	running atomic.Bool
}

func New(s Searcher, publish func(State), opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher: s,
		publish:  publish,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		edit:     make(chan string, 1),
		now:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetQuery replaces the pending text and restarts the quiet window. An edit the run loop
// has not consumed yet is overwritten.
func (p *Pipeline) SetQuery(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
	select {
	case <-p.edit:
	default:
	}
	p.edit <- text
}

// SearchNow issues the current text immediately, skipping the quiet window.
func (p *Pipeline) SearchNow() {
	signal(p.now)
}

func (p *Pipeline) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

type response struct {
	gen     uint64
	query   string
	results []cocktail.Cocktail
	err     error
}

// Run drives the pipeline until ctx is done. Cancelling ctx stops the timer, cancels the
// in-flight search and ends publication.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer p.running.Store(false)

	timer := time.NewTimer(p.debounce)
	timer.Stop()
	defer timer.Stop()

	var (
		gen     uint64
		pending string
	)
	inflight := context.CancelFunc(func() {})
	cur := State{Phase: Idle, Results: []cocktail.Cocktail{}}
	defer func() { inflight() }()

	responses := make(chan response)

	emit := func(s State) {
		if ctx.Err() != nil {
			return
		}
		cur = s
		p.publish(s.clone())
	}

	issue := func(q string) {
		inflight()
		inflight = func() {}
		gen++

		if q == "" {
			emit(State{Phase: Idle, Generation: gen, Results: []cocktail.Cocktail{}})
			return
		}

		reqCtx, cancel := context.WithCancel(ctx)
		inflight = cancel
		emit(State{Phase: Pending, Query: q, Generation: gen, Searching: true, Results: cur.Results})

		go func(gen uint64) {
			res, err := p.searcher.Search(reqCtx, q)
			select {
			case responses <- response{gen: gen, query: q, results: res, err: err}:
			case <-reqCtx.Done():
			}
		}(gen)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case q := <-p.edit:
			pending = q
			timer.Reset(p.debounce)

		case <-timer.C:
			// pending has been quiet for a full window; a newer edit still queued
			// restarts the timer on the next turn.
			issue(pending)

		case <-p.now:
			timer.Stop()
			select {
			case q := <-p.edit:
				pending = q
			default:
			}
			issue(pending)

		case r := <-responses:
			if r.gen != gen {
				p.log.Debug("stale search response dropped",
					zap.String("query", r.query),
					zap.Uint64("generation", r.gen),
					zap.Uint64("current", gen),
				)
				continue
			}
			inflight = func() {}

			if r.err != nil {
				p.log.Warn("search failed",
					zap.String("query", r.query),
					zap.Uint64("generation", r.gen),
					zap.Error(r.err),
				)
				emit(State{
					Phase:      Failed,
					Query:      r.query,
					Generation: r.gen,
					Results:    cur.Results,
					Err:        cocktail.CodeSearchFailed,
				})
				continue
			}

			results := r.results
			if results == nil {
				results = []cocktail.Cocktail{}
			}
			emit(State{Phase: Resolved, Query: r.query, Generation: r.gen, Results: results})
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

package distance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultConcurrency bounds simultaneous provider lookups per request.
const DefaultConcurrency = 4

// Resolver memoizes distance lookups for a single request. It must not be
// shared across requests.
type Resolver struct {
	provider Provider
	limit    int
	logger   *slog.Logger

	group singleflight.Group
	mu    sync.Mutex
	memo  map[Pair]entry
}

type entry struct {
	km       float64
	known    bool
	degraded bool
}

// NewResolver creates a Resolver over provider. A nil provider resolves
// every pair to the Sentinel. limit <= 0 uses DefaultConcurrency.
func NewResolver(provider Provider, limit int, logger *slog.Logger) *Resolver {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		provider: provider,
		limit:    limit,
		logger:   logger,
		memo:     make(map[Pair]entry),
	}
}

// Resolve looks up every distinct pair, concurrently up to the resolver's
// limit, and returns a table of the results. A failing lookup affects only
// its own pair. Pairs already resolved by this Resolver are not looked up again.
func (r *Resolver) Resolve(ctx context.Context, pairs []Pair) *Table {
	unique := make(map[Pair]bool, len(pairs))
	for _, p := range pairs {
		if p.A == p.B {
			continue
		}
		unique[NewPair(p.A, p.B)] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for p := range unique {
		g.Go(func() error {
			r.lookup(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	t := &Table{km: make(map[Pair]float64, len(unique))}
	r.mu.Lock()
	defer r.mu.Unlock()
	for p := range unique {
		e := r.memo[p]
		if e.known {
			t.km[p] = e.km
		}
		if e.degraded {
			t.degraded = append(t.degraded, p)
		}
	}
	sort.Slice(t.degraded, func(i, j int) bool { return t.degraded[i].String() < t.degraded[j].String() })
	return t
}

// lookup resolves one canonical pair, coalescing concurrent duplicates.
func (r *Resolver) lookup(ctx context.Context, p Pair) entry {
	r.mu.Lock()
	if e, ok := r.memo[p]; ok {
		r.mu.Unlock()
		return e
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(p.String(), func() (any, error) {
		r.mu.Lock()
		if e, ok := r.memo[p]; ok {
			r.mu.Unlock()
			return e, nil
		}
		r.mu.Unlock()

		e := r.fetch(ctx, p)

		r.mu.Lock()
		if prev, ok := r.memo[p]; ok {
			e = prev
		} else {
			r.memo[p] = e
		}
		r.mu.Unlock()
		return e, nil
	})
	return v.(entry)
}

func (r *Resolver) fetch(ctx context.Context, p Pair) entry {
	if r.provider == nil {
		return entry{km: Sentinel}
	}
	km, err := r.provider.Distance(ctx, p.A, p.B)
	switch {
	case err == nil && km >= 0:
		return entry{km: km, known: true}
	case err == nil:
		r.logger.Warn("negative distance from provider", "pair", p.String(), "km", km)
		return entry{km: Sentinel, degraded: true}
	case errors.Is(err, ErrUnknownPair) && !isJoined(err):
		r.logger.Debug("distance unknown", "pair", p.String())
		return entry{km: Sentinel}
	default:
		r.logger.Warn("distance lookup failed, using sentinel", "pair", p.String(), "err", err)
		return entry{km: Sentinel, degraded: true}
	}
}

// isJoined reports whether err carries failures beyond ErrUnknownPair.
func isJoined(err error) bool {
	j, ok := err.(interface{ Unwrap() []error })
	return ok && len(j.Unwrap()) > 1
}

// Table is the immutable result of one Resolve call.
type Table struct {
	km       map[Pair]float64
	degraded []Pair
}

// Lookup returns the distance between a and b and whether it is known.
// Identical regions are 0 km apart.
func (t *Table) Lookup(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	if t == nil {
		return Sentinel, false
	}
	km, ok := t.km[NewPair(a, b)]
	if !ok {
		return Sentinel, false
	}
	return km, true
}

// Distance returns the distance between a and b, or Sentinel if unknown.
func (t *Table) Distance(a, b string) float64 {
	km, _ := t.Lookup(a, b)
	return km
}

// Degraded lists pairs whose lookup failed (as opposed to being unknown).
func (t *Table) Degraded() []Pair {
	if t == nil {
		return nil
	}
	return t.degraded
}

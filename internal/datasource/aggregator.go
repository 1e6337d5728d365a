package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// Aggregator assembles a complete batch: Trends exports first, then keyword
// metrics and trending searches concurrently.
type Aggregator struct {
	trends   TrendsSource
	keywords KeywordSource
	fallback KeywordSource
	trending TrendingSource
	log      *logger.Logger
}

// AggregatorOption customizes an Aggregator.
type AggregatorOption func(*Aggregator)

// WithKeywordSource sets the primary keyword source (usually the Keyword Planner).
func WithKeywordSource(ks KeywordSource) AggregatorOption {
	return func(a *Aggregator) { a.keywords = ks }
}

// WithTrendingSource enables the trending-searches feed.
func WithTrendingSource(ts TrendingSource) AggregatorOption {
	return func(a *Aggregator) { a.trending = ts }
}

// NewAggregator creates an aggregator over trends. Keyword metrics fall back
// to the heuristic planner when no primary source is set or it fails.
func NewAggregator(trends TrendsSource, log *logger.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		trends:   trends,
		fallback: NewHeuristicPlanner(),
		log:      logger.OrNop(log),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Sources returns the names of every configured source.
func (a *Aggregator) Sources() []string {
	names := []string{a.trends.Name()}
	if a.keywords != nil {
		names = append(names, a.keywords.Name())
	}
	names = append(names, a.fallback.Name())
	if a.trending != nil {
		names = append(names, a.trending.Name())
	}
	return names
}

// Collection is the outcome of Collect.
type Collection struct {
	Batch         *engine.Batch
	KeywordSource string   // source that produced Batch.Keywords
	Warnings      []string // non-fatal source failures
}

// CollectOptions tunes Collect.
type CollectOptions struct {
	TrendingLimit int
	SkipTrending  bool
}

// Collect loads the batch. A Trends failure is fatal; keyword and trending
// failures are recorded as warnings.
func (a *Aggregator) Collect(ctx context.Context, opts CollectOptions) (*Collection, error) {
	batch, err := a.trends.LoadBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.trends.Name(), err)
	}

	themes := batchThemes(batch)
	col := &Collection{Batch: batch}

	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		kw, source, err := a.keywordMetrics(gctx, themes)
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("keywords: %w", err))
			mu.Unlock()
		}
		mu.Lock()
		batch.Keywords = kw
		col.KeywordSource = source
		mu.Unlock()
		return nil // non-fatal
	})

	if a.trending != nil && !opts.SkipTrending {
		g.Go(func() error {
			items, err := a.trending.Trending(gctx, opts.TrendingLimit)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("trending: %w", err))
				mu.Unlock()
				return nil // non-fatal
			}
			mu.Lock()
			batch.Trending = items
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, e := range errs {
		a.log.Warn("data source degraded", "error", e)
		col.Warnings = append(col.Warnings, e.Error())
	}
	return col, nil
}

// keywordMetrics queries the primary source and falls back to heuristics
// for whatever it could not answer. The returned map is keyed by theme.
func (a *Aggregator) keywordMetrics(ctx context.Context, themes []string) (map[string]models.KeywordMetrics, string, error) {
	queries := make([]string, len(themes))
	for i, t := range themes {
		queries[i] = strings.ToLower(t)
	}

	out := make(map[string]models.KeywordMetrics, len(themes))
	source := a.fallback.Name()
	var primaryErr error

	if a.keywords != nil {
		got, err := a.keywords.KeywordMetrics(ctx, queries)
		if err != nil {
			primaryErr = fmt.Errorf("%s: %w", a.keywords.Name(), err)
		}
		for i, q := range queries {
			if m, ok := got[q]; ok {
				out[themes[i]] = m
			}
		}
		if len(out) > 0 {
			source = a.keywords.Name()
		}
	}

	var missing []string
	for i, t := range themes {
		if _, ok := out[t]; !ok {
			missing = append(missing, queries[i])
		}
	}
	if len(missing) == 0 {
		return out, source, primaryErr
	}

	est, err := a.fallback.KeywordMetrics(ctx, missing)
	if err != nil {
		return out, source, errors.Join(primaryErr, fmt.Errorf("%s: %w", a.fallback.Name(), err))
	}
	for i, t := range themes {
		if _, ok := out[t]; ok {
			continue
		}
		if m, ok := est[queries[i]]; ok {
			out[t] = m
		}
	}
	if a.keywords != nil && len(missing) < len(themes) {
		source = a.keywords.Name() + " + " + a.fallback.Name()
	}
	return out, source, primaryErr
}

func batchThemes(b *engine.Batch) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range b.Series {
		if _, ok := seen[r.Theme]; ok {
			continue
		}
		seen[r.Theme] = struct{}{}
		out = append(out, r.Theme)
	}
	sort.Strings(out)
	return out
}

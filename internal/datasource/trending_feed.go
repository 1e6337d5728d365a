package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/infra"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// DefaultTrendingFeedURL is Google Trends' daily trending-searches RSS.
const DefaultTrendingFeedURL = "https://trends.google.com/trending/rss"

// TrendingFeed reads the trending-searches RSS feed.
type TrendingFeed struct {
	url     string
	geo     string
	parser  *gofeed.Parser
	limiter *infra.RateLimiter
}

// NewTrendingFeed creates a feed reader. An empty feedURL selects the Google
// default; geo is the two-letter region ("US").
func NewTrendingFeed(feedURL, geo string) *TrendingFeed {
	if feedURL == "" {
		feedURL = DefaultTrendingFeedURL
	}
	if geo == "" {
		geo = "US"
	}
	p := gofeed.NewParser()
	p.Client = HTTPClient
	p.UserAgent = DefaultUserAgent
	return &TrendingFeed{
		url:     feedURL,
		geo:     geo,
		parser:  p,
		limiter: infra.NewRateLimiter(5, 10*time.Second),
	}
}

// Name returns the source name.
func (f *TrendingFeed) Name() string { return "Google Trends daily RSS" }

// URL returns the feed URL with the geo parameter applied.
func (f *TrendingFeed) URL() string {
	u, err := url.Parse(f.url)
	if err != nil {
		return f.url
	}
	q := u.Query()
	if q.Get("geo") == "" {
		q.Set("geo", f.geo)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Trending returns up to limit trending searches, newest first. limit <= 0
// returns all items.
func (f *TrendingFeed) Trending(ctx context.Context, limit int) ([]models.TrendingSearch, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(f.URL(), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse trending RSS: %w", err)
	}

	out := make([]models.TrendingSearch, 0, len(feed.Items))
	for _, item := range feed.Items {
		term := strings.TrimSpace(item.Title)
		if term == "" {
			continue
		}
		ts := models.TrendingSearch{Term: term, ApproxTraffic: approxTraffic(item)}
		if item.PublishedParsed != nil {
			ts.PublishedAt = *item.PublishedParsed
		}
		out = append(out, ts)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// approxTraffic reads the ht:approx_traffic extension element.
func approxTraffic(item *gofeed.Item) string {
	ht, ok := item.Extensions["ht"]
	if !ok {
		return ""
	}
	vals := ht["approx_traffic"]
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0].Value)
}

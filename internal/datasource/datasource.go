// Package datasource loads the inputs of an analysis run: Google Trends CSV
// exports, Keyword Planner figures (live or estimated) and the daily
// trending-searches feed.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// TrendsSource produces the raw rows of a batch.
type TrendsSource interface {
	Name() string
	LoadBatch(ctx context.Context) (*engine.Batch, error)
}

// KeywordSource returns planner metrics for keywords, keyed by the keyword
// as given. Keywords the source knows nothing about are absent.
type KeywordSource interface {
	Name() string
	KeywordMetrics(ctx context.Context, keywords []string) (map[string]models.KeywordMetrics, error)
}

// TrendingSource returns today's trending searches.
type TrendingSource interface {
	Name() string
	Trending(ctx context.Context, limit int) ([]models.TrendingSearch, error)
}

// --- Sentinel errors ---

// ErrNotSupported is returned when a source cannot serve a request.
var ErrNotSupported = errors.New("operation not supported by this data source")

// ErrMissingCredentials is returned when a live source has no credentials.
var ErrMissingCredentials = errors.New("missing API credentials")

// ErrNoData is returned when a source has nothing to load.
var ErrNoData = errors.New("no data found")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP helpers ---

// DefaultUserAgent is sent with every outbound request.
const DefaultUserAgent = "trendplanner/1.0 (+https://github.com/ELevine-RE/levine-marketing-dashboard)"

// HTTPClient is the default client for unauthenticated requests.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doJSON sends body as JSON with the given method and decodes the response
// into out. Non-2xx responses become *ErrHTTP.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	if client == nil {
		client = HTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(msg),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

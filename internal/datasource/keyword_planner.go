package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/infra"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// Google Ads REST defaults.
const (
	DefaultAdsBaseURL    = "https://googleads.googleapis.com"
	DefaultAdsAPIVersion = "v17"
	DefaultAdsTokenURL   = "https://oauth2.googleapis.com/token"
	AdsScope             = "https://www.googleapis.com/auth/adwords"

	DefaultGeoTargetID = "1026481" // Utah
	DefaultLanguageID  = "1000"    // English

	maxSeedKeywords = 20 // generateKeywordIdeas accepts at most 20 seeds
	microsPerUnit   = 1_000_000
)

// KeywordPlannerConfig holds Google Ads credentials and request settings.
type KeywordPlannerConfig struct {
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	LoginCustomerID string
	CustomerID      string

	GeoTargetID       string
	LanguageID        string
	APIVersion        string
	BaseURL           string
	TokenURL          string
	RequestsPerMinute int
	CacheTTL          time.Duration
}

// Complete reports whether every credential needed for a live call is set.
func (c KeywordPlannerConfig) Complete() bool {
	return c.DeveloperToken != "" && c.ClientID != "" && c.ClientSecret != "" &&
		c.RefreshToken != "" && c.CustomerID != ""
}

// KeywordPlanner fetches keyword metrics from the Google Ads
// KeywordPlanIdeaService REST endpoint.
type KeywordPlanner struct {
	cfg     KeywordPlannerConfig
	client  *http.Client
	limiter *infra.RateLimiter
	cache   *infra.Cache[models.KeywordMetrics]
	log     *logger.Logger
}

// NewKeywordPlanner creates a planner. The HTTP client authenticates with the
// OAuth2 refresh-token flow; it returns ErrMissingCredentials when the
// configuration is incomplete.
func NewKeywordPlanner(ctx context.Context, cfg KeywordPlannerConfig, log *logger.Logger) (*KeywordPlanner, error) {
	if !cfg.Complete() {
		return nil, ErrMissingCredentials
	}
	cfg = withAdsDefaults(cfg)

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: cfg.TokenURL,
		},
		Scopes: []string{AdsScope},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, HTTPClient)
	client := oc.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	client.Timeout = HTTPClient.Timeout

	return newKeywordPlanner(cfg, client, log), nil
}

func newKeywordPlanner(cfg KeywordPlannerConfig, client *http.Client, log *logger.Logger) *KeywordPlanner {
	cfg = withAdsDefaults(cfg)
	return &KeywordPlanner{
		cfg:     cfg,
		client:  client,
		limiter: infra.PerMinute(cfg.RequestsPerMinute),
		cache:   infra.NewCache[models.KeywordMetrics](cfg.CacheTTL),
		log:     logger.OrNop(log),
	}
}

func withAdsDefaults(cfg KeywordPlannerConfig) KeywordPlannerConfig {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAdsBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAdsAPIVersion
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultAdsTokenURL
	}
	if cfg.GeoTargetID == "" {
		cfg.GeoTargetID = DefaultGeoTargetID
	}
	if cfg.LanguageID == "" {
		cfg.LanguageID = DefaultLanguageID
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	cfg.CustomerID = digitsOnly(cfg.CustomerID)
	cfg.LoginCustomerID = digitsOnly(cfg.LoginCustomerID)
	return cfg
}

// Name returns the source name.
func (k *KeywordPlanner) Name() string { return "Google Ads Keyword Planner" }

// KeywordMetrics returns metrics for each keyword the planner reports on.
// Seeds are sent in chunks of 20; results are cached per keyword.
func (k *KeywordPlanner) KeywordMetrics(ctx context.Context, keywords []string) (map[string]models.KeywordMetrics, error) {
	if n := k.cache.Cleanup(); n > 0 {
		k.log.Debug("expired keyword cache entries", "dropped", n, "cached", k.cache.Len())
	}

	out := make(map[string]models.KeywordMetrics, len(keywords))
	var pending []string
	for _, kw := range keywords {
		if m, ok := k.cache.Get(cacheKey(kw)); ok {
			out[kw] = m
			continue
		}
		pending = append(pending, kw)
	}

	for start := 0; start < len(pending); start += maxSeedKeywords {
		end := min(start+maxSeedKeywords, len(pending))
		chunk := pending[start:end]

		ideas, err := k.GenerateIdeas(ctx, chunk)
		if err != nil {
			return out, fmt.Errorf("keyword planner: %w", err)
		}
		byText := make(map[string]models.KeywordMetrics, len(ideas))
		for _, idea := range ideas {
			byText[cacheKey(idea.Keyword)] = idea
		}
		for _, kw := range chunk {
			m, ok := byText[cacheKey(kw)]
			if !ok {
				continue
			}
			k.cache.Set(cacheKey(kw), m)
			out[kw] = m
		}
	}
	return out, nil
}

// GenerateIdeas calls generateKeywordIdeas for the seed keywords, following
// pagination, and returns every idea.
func (k *KeywordPlanner) GenerateIdeas(ctx context.Context, seeds []string) ([]models.KeywordMetrics, error) {
	url := fmt.Sprintf("%s/%s/customers/%s:generateKeywordIdeas", k.cfg.BaseURL, k.cfg.APIVersion, k.cfg.CustomerID)
	headers := map[string]string{
		"developer-token":   k.cfg.DeveloperToken,
		"login-customer-id": k.cfg.LoginCustomerID,
	}

	req := ideaRequest{
		Language:           "languageConstants/" + k.cfg.LanguageID,
		GeoTargetConstants: []string{"geoTargetConstants/" + k.cfg.GeoTargetID},
		KeywordPlanNetwork: "GOOGLE_SEARCH",
		KeywordSeed:        &keywordSeed{Keywords: seeds},
	}

	var ideas []models.KeywordMetrics
	for {
		if err := k.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var resp ideaResponse
		if err := doJSON(ctx, k.client, http.MethodPost, url, headers, req, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			ideas = append(ideas, r.toModel())
		}
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}

	k.log.Debug("keyword ideas fetched", "seeds", len(seeds), "ideas", len(ideas))
	return ideas, nil
}

// --- Wire types ---

type ideaRequest struct {
	Language           string       `json:"language"`
	GeoTargetConstants []string     `json:"geoTargetConstants"`
	KeywordPlanNetwork string       `json:"keywordPlanNetwork"`
	KeywordSeed        *keywordSeed `json:"keywordSeed,omitempty"`
	PageToken          string       `json:"pageToken,omitempty"`
}

type keywordSeed struct {
	Keywords []string `json:"keywords"`
}

type ideaResponse struct {
	Results       []ideaResult `json:"results"`
	NextPageToken string       `json:"nextPageToken"`
}

type ideaResult struct {
	Text    string `json:"text"`
	Metrics struct {
		AvgMonthlySearches     int64Value `json:"avgMonthlySearches"`
		Competition            string     `json:"competition"`
		CompetitionIndex       int64Value `json:"competitionIndex"`
		LowTopOfPageBidMicros  int64Value `json:"lowTopOfPageBidMicros"`
		HighTopOfPageBidMicros int64Value `json:"highTopOfPageBidMicros"`
	} `json:"keywordIdeaMetrics"`
}

func (r ideaResult) toModel() models.KeywordMetrics {
	m := models.KeywordMetrics{
		Keyword:            r.Text,
		AvgMonthlySearches: int64(r.Metrics.AvgMonthlySearches),
		Competition:        models.ParseCompetition(r.Metrics.Competition),
		CompetitionIndex:   int(r.Metrics.CompetitionIndex),
		LowBid:             float64(r.Metrics.LowTopOfPageBidMicros) / microsPerUnit,
		HighBid:            float64(r.Metrics.HighTopOfPageBidMicros) / microsPerUnit,
		Source:             "google_ads",
	}
	switch {
	case m.LowBid > 0 && m.HighBid > 0:
		cpc := (m.LowBid + m.HighBid) / 2
		m.CPC = &cpc
	case m.HighBid > 0:
		cpc := m.HighBid
		m.CPC = &cpc
	case m.LowBid > 0:
		cpc := m.LowBid
		m.CPC = &cpc
	}
	return m
}

// int64Value decodes proto3 JSON int64 fields, which arrive as strings.
type int64Value int64

func (v *int64Value) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var f float64
		if ferr := json.Unmarshal([]byte(s), &f); ferr != nil {
			return fmt.Errorf("int64 value %q: %w", s, err)
		}
		n = int64(f)
	}
	*v = int64Value(n)
	return nil
}

func cacheKey(kw string) string {
	return strings.ToLower(strings.Join(strings.Fields(kw), " "))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

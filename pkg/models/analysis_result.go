package models

// GeoShift describes how a theme's metro ranking moved between timeframes.
type GeoShift struct {
	Theme         string   `json:"theme"`
	Emerging      []string `json:"emerging"`
	Declining     []string `json:"declining"`
	StableLeaders []string `json:"stable_leaders"`
}

// RegionLeader is a metro ranked by summed interest across themes.
type RegionLeader struct {
	Region     string   `json:"region"`
	TotalScore float64  `json:"total_score"`
	TopThemes  []string `json:"top_themes"`
}

// KeywordShift lists breakout and fading related queries for one theme.
type KeywordShift struct {
	Theme     string   `json:"theme"`
	Breakout  []string `json:"breakout"`
	Declining []string `json:"declining"`
}

// HighValueKeyword ranks a related query across all themes.
type HighValueKeyword struct {
	Query       string  `json:"query"`
	TotalScore  float64 `json:"total_score"`
	MaxScore    float64 `json:"max_score"`
	MarketCount int     `json:"market_count"`
}

// TimeframeComparison is the cross-window momentum view of one theme.
type TimeframeComparison struct {
	Theme            string  `json:"theme"`
	AvgShort         float64 `json:"avg_short"`
	AvgMedium        float64 `json:"avg_medium"`
	AvgLong          float64 `json:"avg_long"`
	LongMomentum     float64 `json:"long_momentum"`     // (1y/5y - 1) * 100
	RecentGrowth     float64 `json:"recent_growth"`
	HistoricalGrowth float64 `json:"historical_growth"`
	Acceleration     string  `json:"acceleration"`      // Accelerating / Decelerating / Steady
	VolatilityShort  float64 `json:"volatility_short"`
	VolatilityLong   float64 `json:"volatility_long"`
	VolatilityTrend  string  `json:"volatility_trend"`  // Increasing / Decreasing / Stable
	CAGR             float64 `json:"cagr"`
	CAGRAvailable    bool    `json:"cagr_available"`
}

// CampaignGroup is a set of themes that can share one campaign shell.
type CampaignGroup struct {
	Name   string   `json:"name"`
	Themes []string `json:"themes"`
}

// GeoCluster is a k-means label over the theme x region pivot.
type GeoCluster struct {
	Theme string `json:"theme"`
	Label int    `json:"label"`
}

// Package config handles configuration loading for the trend planner.
// It supports YAML config files, an optional .env file and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. TRENDPLANNER_API_PORT.
const EnvPrefix = "TRENDPLANNER"

// Config represents the complete application configuration.
type Config struct {
	Ads      AdsConfig      `mapstructure:"ads"      yaml:"ads" json:"ads"`
	Trends   TrendsConfig   `mapstructure:"trends"   yaml:"trends" json:"trends"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" json:"analysis"`
	Budget   BudgetConfig   `mapstructure:"budget"   yaml:"budget" json:"budget"`
	API      APIConfig      `mapstructure:"api"      yaml:"api" json:"api"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule" json:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging" json:"logging"`

	// File is the config file that was read, "" when running on defaults.
	File string `mapstructure:"-" yaml:"-" json:"file,omitempty"`
}

// AdsConfig holds Google Ads API credentials and Keyword Planner targeting.
type AdsConfig struct {
	DeveloperToken    string        `mapstructure:"developer_token"     yaml:"developer_token" json:"developer_token"`
	ClientID          string        `mapstructure:"client_id"           yaml:"client_id" json:"client_id"`
	ClientSecret      string        `mapstructure:"client_secret"       yaml:"client_secret" json:"client_secret"`
	RefreshToken      string        `mapstructure:"refresh_token"       yaml:"refresh_token" json:"refresh_token"`
	LoginCustomerID   string        `mapstructure:"login_customer_id"   yaml:"login_customer_id" json:"login_customer_id"`
	CustomerID        string        `mapstructure:"customer_id"         yaml:"customer_id" json:"customer_id"`
	GeoTargetID       string        `mapstructure:"geo_target_id"       yaml:"geo_target_id" json:"geo_target_id"` // 1026481 = Utah
	LanguageID        string        `mapstructure:"language_id"         yaml:"language_id" json:"language_id"`     // 1000 = English
	APIVersion        string        `mapstructure:"api_version"         yaml:"api_version" json:"api_version"`
	BaseURL           string        `mapstructure:"base_url"            yaml:"base_url" json:"base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"           yaml:"cache_ttl" json:"cache_ttl"`
}

// Configured reports whether live Keyword Planner calls are possible.
func (a AdsConfig) Configured() bool {
	return a.DeveloperToken != "" && a.ClientID != "" && a.ClientSecret != "" &&
		a.RefreshToken != "" && a.CustomerID != ""
}

// TrendsConfig locates the Google Trends inputs.
type TrendsConfig struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	FeedURL string `mapstructure:"feed_url" yaml:"feed_url" json:"feed_url"`
	FeedGeo string `mapstructure:"feed_geo" yaml:"feed_geo" json:"feed_geo"`
}

// AnalysisConfig tunes the analysis engine.
type AnalysisConfig struct {
	TrailingWindow int     `mapstructure:"trailing_window" yaml:"trailing_window" json:"trailing_window"`
	EpsilonRatio   float64 `mapstructure:"epsilon_ratio"   yaml:"epsilon_ratio" json:"epsilon_ratio"`
	FallbackValue  float64 `mapstructure:"fallback_value"  yaml:"fallback_value" json:"fallback_value"`
	Granularity    string  `mapstructure:"granularity"     yaml:"granularity" json:"granularity"` // native, week, month, year
	WeekBuckets    bool    `mapstructure:"week_buckets"    yaml:"week_buckets" json:"week_buckets"`
	Concurrency    int     `mapstructure:"concurrency"     yaml:"concurrency" json:"concurrency"`
	ClusterK       int     `mapstructure:"cluster_k"       yaml:"cluster_k" json:"cluster_k"`
}

// BudgetConfig holds the monthly advertising budget in USD.
type BudgetConfig struct {
	Monthly float64 `mapstructure:"monthly" yaml:"monthly" json:"monthly"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host" json:"host"`
	Port           int           `mapstructure:"port"            yaml:"port" json:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins" json:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// ScheduleConfig controls the periodic refresh in serve mode.
type ScheduleConfig struct {
	Enabled  bool   `mapstructure:"enabled"  yaml:"enabled" json:"enabled"`
	Cron     string `mapstructure:"cron"     yaml:"cron" json:"cron"`
	Timezone string `mapstructure:"timezone" yaml:"timezone" json:"timezone"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level" json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.trendplanner/config.yaml (home directory)
//  3. /etc/trendplanner/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: TRENDPLANNER_<SECTION>_<KEY>, e.g., TRENDPLANNER_BUDGET_MONTHLY
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".trendplanner"))
	v.AddConfigPath("/etc/trendplanner")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Google Ads (blank credentials register the keys for env lookup)
	for _, k := range []string{"developer_token", "client_id", "client_secret", "refresh_token", "login_customer_id", "customer_id"} {
		v.SetDefault("ads."+k, "")
	}
	v.SetDefault("ads.geo_target_id", "1026481")
	v.SetDefault("ads.language_id", "1000")
	v.SetDefault("ads.api_version", "v17")
	v.SetDefault("ads.base_url", "https://googleads.googleapis.com")
	v.SetDefault("ads.requests_per_minute", 30)
	v.SetDefault("ads.cache_ttl", "24h")

	// Trends
	v.SetDefault("trends.data_dir", "./data")
	v.SetDefault("trends.feed_url", "https://trends.google.com/trending/rss")
	v.SetDefault("trends.feed_geo", "US")

	// Analysis
	v.SetDefault("analysis.trailing_window", 12)
	v.SetDefault("analysis.epsilon_ratio", 0.01)
	v.SetDefault("analysis.fallback_value", 0.5)
	v.SetDefault("analysis.granularity", "native")
	v.SetDefault("analysis.week_buckets", false)
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("analysis.cluster_k", 3)

	// Budget
	v.SetDefault("budget.monthly", 2000)

	// API
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout", "60s")

	// Schedule: daily at 06:00 Mountain
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("schedule.timezone", "America/Denver")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Google Ads credentials are conventionally shipped in .env files under
// these names.
var googleAdsEnv = []struct {
	name  string
	field func(*Config) *string
}{
	{"GOOGLE_ADS_DEVELOPER_TOKEN", func(c *Config) *string { return &c.Ads.DeveloperToken }},
	{"GOOGLE_ADS_CLIENT_ID", func(c *Config) *string { return &c.Ads.ClientID }},
	{"GOOGLE_ADS_CLIENT_SECRET", func(c *Config) *string { return &c.Ads.ClientSecret }},
	{"GOOGLE_ADS_REFRESH_TOKEN", func(c *Config) *string { return &c.Ads.RefreshToken }},
	{"GOOGLE_ADS_LOGIN_CUSTOMER_ID", func(c *Config) *string { return &c.Ads.LoginCustomerID }},
	{"GOOGLE_ADS_CUSTOMER_ID", func(c *Config) *string { return &c.Ads.CustomerID }},
}

// overrideFromEnv explicitly reads sensitive keys from environment
// variables. TRENDPLANNER_ADS_* wins; GOOGLE_ADS_* only fills blanks.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("TRENDPLANNER_ADS_DEVELOPER_TOKEN"); key != "" {
		cfg.Ads.DeveloperToken = key
	}
	if key := os.Getenv("TRENDPLANNER_ADS_CLIENT_SECRET"); key != "" {
		cfg.Ads.ClientSecret = key
	}
	if key := os.Getenv("TRENDPLANNER_ADS_REFRESH_TOKEN"); key != "" {
		cfg.Ads.RefreshToken = key
	}
	for _, e := range googleAdsEnv {
		if val := os.Getenv(e.name); val != "" {
			if f := e.field(cfg); *f == "" {
				*f = val
			}
		}
	}
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := models.ParseGranularity(c.Analysis.Granularity); err != nil {
		errs = append(errs, fmt.Errorf("analysis.granularity: %w", err))
	}
	if c.Analysis.TrailingWindow < 1 {
		errs = append(errs, fmt.Errorf("analysis.trailing_window must be >= 1, got %d", c.Analysis.TrailingWindow))
	}
	if c.Analysis.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("analysis.concurrency must be >= 1, got %d", c.Analysis.Concurrency))
	}
	if c.Budget.Monthly <= 0 {
		errs = append(errs, fmt.Errorf("budget.monthly must be positive, got %v", c.Budget.Monthly))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

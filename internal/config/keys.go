package config

import "os"

// APIKeySource represents where a credential comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of one credential.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "1//...xyz"
}

// CheckAPIKeys returns the status of the Google Ads credentials.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Ads Developer Token", cfg.Ads.DeveloperToken, "TRENDPLANNER_ADS_DEVELOPER_TOKEN", "GOOGLE_ADS_DEVELOPER_TOKEN"),
		checkKey("Ads OAuth Client ID", cfg.Ads.ClientID, "TRENDPLANNER_ADS_CLIENT_ID", "GOOGLE_ADS_CLIENT_ID"),
		checkKey("Ads OAuth Client Secret", cfg.Ads.ClientSecret, "TRENDPLANNER_ADS_CLIENT_SECRET", "GOOGLE_ADS_CLIENT_SECRET"),
		checkKey("Ads Refresh Token", cfg.Ads.RefreshToken, "TRENDPLANNER_ADS_REFRESH_TOKEN", "GOOGLE_ADS_REFRESH_TOKEN"),
		checkKey("Ads Customer ID", cfg.Ads.CustomerID, "TRENDPLANNER_ADS_CUSTOMER_ID", "GOOGLE_ADS_CUSTOMER_ID"),
		checkKey("Ads Login Customer ID", cfg.Ads.LoginCustomerID, "TRENDPLANNER_ADS_LOGIN_CUSTOMER_ID", "GOOGLE_ADS_LOGIN_CUSTOMER_ID"),
	}
}

// checkKey checks if a credential is set and whether any of envVars holds it.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}
	if value == "" {
		status.Source = KeySourceNone
		return status
	}

	status.Source = KeySourceConfig
	for _, env := range envVars {
		if os.Getenv(env) == value {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks a credential for display, showing only the first and last
// three characters.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// Redacted returns a copy of cfg with every Ads credential masked, safe to
// serve or print.
func (c *Config) Redacted() Config {
	out := *c
	out.API.CORSOrigins = append([]string(nil), c.API.CORSOrigins...)
	for _, s := range []*string{
		&out.Ads.DeveloperToken, &out.Ads.ClientID, &out.Ads.ClientSecret,
		&out.Ads.RefreshToken, &out.Ads.CustomerID, &out.Ads.LoginCustomerID,
	} {
		if *s != "" {
			*s = maskKey(*s)
		}
	}
	return out
}

package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeywordPlannerMissingCredentials(t *testing.T) {
	_, err := NewKeywordPlanner(context.Background(), KeywordPlannerConfig{DeveloperToken: "x"}, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestKeywordPlannerGenerateIdeas(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("refresh_token") != "refresh-1" {
			http.Error(w, "bad refresh token", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	var calls atomic.Int32
	adsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v17/customers/1234567890:generateKeywordIdeas" {
			http.Error(w, "bad path "+r.URL.Path, http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("developer-token") != "dev" || r.Header.Get("login-customer-id") != "9876543210" {
			http.Error(w, "missing ads headers", http.StatusForbidden)
			return
		}
		var req ideaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.GeoTargetConstants[0] != "geoTargetConstants/1026481" || req.Language != "languageConstants/1000" {
			http.Error(w, "bad targeting", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.PageToken == "" {
			w.Write([]byte(`{"results":[{"text":"park city real estate","keywordIdeaMetrics":{"avgMonthlySearches":"1300","competition":"HIGH","competitionIndex":"87","lowTopOfPageBidMicros":"2000000","highTopOfPageBidMicros":"6000000"}}],"nextPageToken":"p2"}`))
			return
		}
		w.Write([]byte(`{"results":[{"text":"kamas real estate","keywordIdeaMetrics":{"avgMonthlySearches":"90","competition":"LOW"}}]}`))
	}))
	defer adsSrv.Close()

	kp, err := NewKeywordPlanner(context.Background(), KeywordPlannerConfig{
		DeveloperToken:  "dev",
		ClientID:        "client",
		ClientSecret:    "secret",
		RefreshToken:    "refresh-1",
		CustomerID:      "123-456-7890",
		LoginCustomerID: "987-654-3210",
		BaseURL:         adsSrv.URL,
		TokenURL:        tokenSrv.URL,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeywordPlanner: %v", err)
	}

	got, err := kp.KeywordMetrics(context.Background(), []string{"Park City Real Estate", "kamas real estate", "glenwild"})
	if err != nil {
		t.Fatalf("KeywordMetrics: %v", err)
	}
	pc, ok := got["Park City Real Estate"]
	if !ok {
		t.Fatalf("park city missing: %+v", got)
	}
	if pc.AvgMonthlySearches != 1300 || pc.CompetitionIndex != 87 || pc.CPC == nil || *pc.CPC != 4 {
		t.Errorf("park city = %s", pc)
	}
	if kamas := got["kamas real estate"]; kamas.CPC != nil || kamas.Competition != "LOW" {
		t.Errorf("kamas = %+v", kamas)
	}
	if _, ok := got["glenwild"]; ok {
		t.Error("glenwild was not returned by the API and should be absent")
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 paged calls, got %d", calls.Load())
	}

	// Second lookup is served from cache.
	if _, err := kp.KeywordMetrics(context.Background(), []string{"park city real estate"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("cached lookup hit the API: %d calls", calls.Load())
	}
}

func TestKeywordPlannerCacheExpiry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"text":"heber utah homes","keywordIdeaMetrics":{"avgMonthlySearches":"880","competition":"MEDIUM"}}]}`))
	}))
	defer srv.Close()

	kp := newKeywordPlanner(KeywordPlannerConfig{CustomerID: "1", BaseURL: srv.URL, CacheTTL: 20 * time.Millisecond}, srv.Client(), nil)
	for i := 0; i < 2; i++ {
		if _, err := kp.KeywordMetrics(context.Background(), []string{"heber utah homes"}); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 before expiry", calls.Load())
	}

	time.Sleep(40 * time.Millisecond)
	if _, err := kp.KeywordMetrics(context.Background(), []string{"heber utah homes"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 after expiry", calls.Load())
	}
	if n := kp.cache.Len(); n != 1 {
		t.Errorf("cache entries = %d, want 1 after expired entries are swept", n)
	}
}

func TestKeywordPlannerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	kp := newKeywordPlanner(KeywordPlannerConfig{CustomerID: "1", BaseURL: srv.URL}, srv.Client(), nil)
	_, err := kp.KeywordMetrics(context.Background(), []string{"park city"})
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected *ErrHTTP 403, got %v", err)
	}
}

func TestInt64ValueDecoding(t *testing.T) {
	var v struct {
		A int64Value `json:"a"`
		B int64Value `json:"b"`
		C int64Value `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"42","b":7,"c":null}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != 42 || v.B != 7 || v.C != 0 {
		t.Errorf("decoded %+v", v)
	}
}

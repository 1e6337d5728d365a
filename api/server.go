// Package api provides the HTTP REST API for the trend planner.
//
// It serves the latest analysis snapshot (themes, recommendations, report),
// runs ad-hoc analyses over posted batches, triggers refreshes and pushes
// refresh events to dashboard clients over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gopkg.in/yaml.v3"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/config"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/datasource"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/recommend"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/report"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/scheduler"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
	"github.com/ELevine-RE/levine-marketing-dashboard/web"
)

// Version is reported by /health; set by the binary at startup.
var Version = "dev"

// Request body caps for POST /analyze and POST /recommend.
const (
	maxBatchBytes     = 32 << 20
	maxRecommendBytes = 64 << 10
)

// ErrNoSnapshot is returned before the first successful refresh.
var ErrNoSnapshot = errors.New("no analysis available yet; POST /api/v1/refresh first")

// Collector loads a complete batch from the configured data sources.
type Collector interface {
	Collect(ctx context.Context, opts datasource.CollectOptions) (*datasource.Collection, error)
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	eng       *engine.Engine
	collector Collector
	log       *logger.Logger
	wsHub     *WSHub
	reportCfg report.Config
	serveUI   bool
	sched     *scheduler.Scheduler

	snap      snapshotStore
	refreshMu sync.Mutex
}

// NewServer creates a configured API server with all routes and middleware.
// collector may be nil, in which case refresh is unavailable and the server
// only analyzes posted batches.
func NewServer(cfg *config.Config, eng *engine.Engine, collector Collector, log *logger.Logger) *Server {
	srv := &Server{
		cfg:       cfg,
		eng:       eng,
		collector: collector,
		log:       logger.OrNop(log),
		wsHub:     NewWSHub(),
		reportCfg: report.DefaultConfig(),
		serveUI:   true,
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded dashboard is served at /.
// Must be called before Run.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// SetScheduler exposes the refresh schedule at /api/v1/schedule.
func (s *Server) SetScheduler(sched *scheduler.Scheduler) {
	s.sched = sched
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	timeout := s.cfg.API.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	// WebSocket connections are long-lived; keep them out of the timeout group.
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Get("/health", s.handleHealth)

			r.Get("/themes", s.handleThemes)
			r.Get("/themes/{theme}", s.handleTheme)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/plan", s.handlePlan)
			r.Get("/report", s.handleReport)

			r.Post("/analyze", s.handleAnalyze)
			r.Post("/recommend", s.handleRecommend)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/schedule", s.handleSchedule)

			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)
		})
	})

	if s.serveUI {
		s.mountDashboard(r, web.DistFS())
	}
	return r
}

// mountDashboard serves the embedded static dashboard.
func (s *Server) mountDashboard(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fileServer.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).String(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success" yaml:"success"`
	Data    any    `json:"data,omitempty" yaml:"data,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ThemeSummary is one row of GET /api/v1/themes.
type ThemeSummary struct {
	Theme          string                `json:"theme" yaml:"theme"`
	Timeframe      models.Timeframe      `json:"timeframe" yaml:"timeframe"`
	MomentumScore  float64               `json:"momentum_score" yaml:"momentum_score"`
	TrendDirection models.TrendDirection `json:"trend_direction" yaml:"trend_direction"`
	PeakPeriod     string                `json:"peak_period" yaml:"peak_period"`
	Seasonality    float64               `json:"seasonality_strength" yaml:"seasonality_strength"`
	AvgVolume      float64               `json:"avg_volume" yaml:"avg_volume"`
	PriorityTier   models.PriorityTier   `json:"priority_tier" yaml:"priority_tier"`
	BudgetTier     models.BudgetTier     `json:"budget_tier" yaml:"budget_tier"`
}

// RecommendRequest is the body for POST /api/v1/recommend. It carries
// precomputed metrics for one theme plus the externally supplied keyword
// figures.
type RecommendRequest struct {
	Theme               string   `json:"theme"`
	MomentumScore       float64  `json:"momentum_score"`
	TrendDirection      string   `json:"trend_direction"`
	AvgVolume           float64  `json:"avg_volume"`
	Competition         string   `json:"competition"`
	CPC                 *float64 `json:"cpc,omitempty"`
	SeasonalityStrength float64  `json:"seasonality_strength,omitempty"`
	PeakPeriod          string   `json:"peak_period,omitempty"`
}

// RefreshResponse summarises a completed refresh.
type RefreshResponse struct {
	RunID         string    `json:"run_id" yaml:"run_id"`
	Themes        int       `json:"themes" yaml:"themes"`
	Skipped       int       `json:"skipped" yaml:"skipped"`
	KeywordSource string    `json:"keyword_source" yaml:"keyword_source"`
	Warnings      []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	RefreshedAt   time.Time `json:"refreshed_at" yaml:"refreshed_at"`
	Duration      string    `json:"duration" yaml:"duration"`
}

// ============================================================
// Refresh
// ============================================================

// Refresh collects a fresh batch, analyzes it and replaces the snapshot.
// Concurrent calls are serialised. Connected WebSocket clients receive a
// "refresh" event on success.
func (s *Server) Refresh(ctx context.Context) (*RefreshResponse, error) {
	if s.collector == nil {
		return nil, fmt.Errorf("refresh: no data sources configured")
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	col, err := s.collector.Collect(ctx, datasource.CollectOptions{TrendingLimit: 20})
	if err != nil {
		return nil, fmt.Errorf("refresh: collect: %w", err)
	}
	if col.Batch == nil {
		return nil, fmt.Errorf("refresh: collector returned no batch")
	}
	res, err := s.eng.Run(ctx, *col.Batch)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	snap := &Snapshot{
		Result:        res,
		KeywordSource: col.KeywordSource,
		Warnings:      col.Warnings,
		RefreshedAt:   time.Now(),
	}
	s.snap.Store(snap)

	resp := &RefreshResponse{
		RunID:         res.RunID,
		Themes:        len(res.Themes),
		Skipped:       len(res.Skipped),
		KeywordSource: col.KeywordSource,
		Warnings:      col.Warnings,
		RefreshedAt:   snap.RefreshedAt,
		Duration:      report.FormatDuration(time.Since(start)),
	}
	s.wsHub.Broadcast(WSMessage{Type: EventRefresh, Data: resp})
	s.log.Info("snapshot refreshed", "run_id", res.RunID, "themes", resp.Themes, "skipped", resp.Skipped)
	return resp, nil
}

// SetSnapshot installs res as the current snapshot (used by the CLI when it
// analyzes before serving, and by tests).
func (s *Server) SetSnapshot(res *engine.BatchResult, keywordSource string, warnings []string) {
	s.snap.Store(&Snapshot{Result: res, KeywordSource: keywordSource, Warnings: warnings, RefreshedAt: time.Now()})
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":     "ok",
		"version":    Version,
		"time":       utils.NowMountain().Format(time.RFC3339),
		"ws_clients": s.wsHub.ClientCount(),
	}
	if snap := s.snap.Load(); snap != nil {
		data["run_id"] = snap.Result.RunID
		data["themes"] = len(snap.Result.Themes)
		data["refreshed_at"] = snap.RefreshedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.requireSnapshot(w)
	if !ok {
		return
	}
	rows := make([]ThemeSummary, 0, len(snap.Result.Themes))
	for _, t := range snap.Result.Themes {
		m := t.Longest()
		rows = append(rows, ThemeSummary{
			Theme:          t.Theme,
			Timeframe:      m.Timeframe,
			MomentumScore:  m.MomentumScore,
			TrendDirection: m.TrendDirection,
			PeakPeriod:     m.PeakPeriod,
			Seasonality:    m.SeasonalityStrength,
			AvgVolume:      m.AvgVolume,
			PriorityTier:   t.Recommendation.PriorityTier,
			BudgetTier:     t.Recommendation.BudgetTier,
		})
	}
	switch r.URL.Query().Get("sort") {
	case "momentum":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].MomentumScore > rows[j].MomentumScore })
	case "priority":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].PriorityTier.Rank() < rows[j].PriorityTier.Rank() })
	}
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: rows})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.requireSnapshot(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "theme")
	t, found := snap.Result.Theme(name)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("theme %q not found", name))
		return
	}

	// Series are excluded from the default JSON shape; include on request.
	if r.URL.Query().Get("series") == "true" {
		respond(w, r, http.StatusOK, APIResponse{Success: true, Data: struct {
			engine.ThemeResult `yaml:",inline"`
			Series             []models.ThemeSeries `json:"series" yaml:"series"`
		}{t, t.Series}})
		return
	}
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: t})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.requireSnapshot(w)
	if !ok {
		return
	}
	recs := snap.Result.Recommendations()
	if tier := strings.ToUpper(r.URL.Query().Get("tier")); tier != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			if string(rec.PriorityTier) == tier {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: recs})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.requireSnapshot(w)
	if !ok {
		return
	}
	plan := snap.Result.Plan
	if b := r.URL.Query().Get("budget"); b != "" {
		var monthly float64
		if _, err := fmt.Sscanf(b, "%g", &monthly); err != nil || monthly <= 0 {
			writeError(w, http.StatusBadRequest, "budget must be a positive number")
			return
		}
		plan = recommend.Plan(snap.Result.Recommendations(), monthly)
	}
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: plan})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.requireSnapshot(w)
	if !ok {
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil || format == report.FormatPDF {
		writeError(w, http.StatusBadRequest, "format must be md or html")
		return
	}
	out, err := report.Generate(snap.Result, format, s.reportCfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ct := "text/markdown; charset=utf-8"
	if format == report.FormatHTML {
		ct = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var batch engine.Batch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	dec.UseNumber()
	if err := dec.Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(batch.Series) == 0 {
		writeError(w, http.StatusBadRequest, "series is required")
		return
	}

	res, err := s.eng.Run(r.Context(), batch)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: EventAnalysisComplete,
		Data: map[string]any{"run_id": res.RunID, "themes": len(res.Themes), "skipped": len(res.Skipped)},
	})
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecommendBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Theme) == "" {
		writeError(w, http.StatusBadRequest, "theme is required")
		return
	}
	dir := models.TrendDirection(strings.ToUpper(strings.TrimSpace(req.TrendDirection)))
	switch dir {
	case models.TrendAccelerating, models.TrendDecelerating, models.TrendStable:
	case "":
		dir = models.TrendStable
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown trend_direction %q", req.TrendDirection))
		return
	}

	rec := recommend.Select(recommend.Input{
		Theme:               utils.NormalizeTheme(req.Theme),
		MomentumScore:       req.MomentumScore,
		Direction:           dir,
		AvgVolume:           req.AvgVolume,
		Competition:         models.ParseCompetition(req.Competition),
		CPC:                 req.CPC,
		SeasonalityStrength: req.SeasonalityStrength,
		PeakPeriod:          req.PeakPeriod,
	})
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: rec})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusNotImplemented, "refresh is not configured")
		return
	}
	resp, err := s.Refresh(r.Context())
	if err != nil {
		s.log.Error("refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusNotFound, "scheduled refresh is disabled")
		return
	}
	respond(w, r, http.StatusOK, APIResponse{Success: true, Data: s.sched.Status()})
}

func (s *Server) requireSnapshot(w http.ResponseWriter) (*Snapshot, bool) {
	snap := s.snap.Load()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoSnapshot.Error())
		return nil, false
	}
	return snap, true
}

// ============================================================
// Encoding
// ============================================================

// respond writes v as YAML when ?format=yaml or the client accepts YAML,
// otherwise as JSON.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsYAML(r) {
		writeYAML(w, status, v)
		return
	}
	writeJSON(w, status, v)
}

func wantsYAML(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "yaml", "yml":
		return true
	case "json":
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/yaml") || strings.Contains(accept, "application/x-yaml")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeYAML(w http.ResponseWriter, status int, v any) {
	out, err := yaml.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "yaml encoding failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

package api

import (
	"net/http"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/config"
)

// ConfigResponse is returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     config.Config `json:"config" yaml:"config"`
	ConfigFile string        `json:"config_file" yaml:"config_file"`
}

// handleGetConfig returns the running configuration with credentials masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg.Redacted(),
			ConfigFile: s.cfg.File,
		},
	})
}

// handleGetConfigKeys reports which Keyword Planner credentials are set.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *TrackerServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/config", s.handleExportConfigs)
	mux.HandleFunc("POST /v1/config/import", s.handleImportConfigs)
	mux.HandleFunc("GET /v1/config/stream", s.handleConfigStream)
	mux.HandleFunc("GET /v1/config/{category}", s.handleGetConfig)
	mux.HandleFunc("PUT /v1/config/{category}", s.handleSetConfig)
	mux.HandleFunc("DELETE /v1/config/{category}", s.handleResetConfig)
	mux.HandleFunc("GET /v1/config/{category}/history", s.handleConfigHistory)
	mux.HandleFunc("GET /v1/daily", s.handleGetDaily)
	mux.HandleFunc("POST /v1/daily", s.handleUpsertDaily)
	mux.HandleFunc("GET /v1/daily/range", s.handleDailyRange)
	mux.HandleFunc("GET /v1/daily/export", s.handleExportDaily)
	mux.HandleFunc("POST /v1/daily/import", s.handleImportDaily)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	handler := RecoveryMiddleware(LoggingMiddleware(mux, s.logger), s.logger)
	return AuthMiddleware(authToken, handler)
}

// handleHealth handles GET /v1/health.
func (s *TrackerServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"metrics": s.daily.Enabled(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

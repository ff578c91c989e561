package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
)

// writeConfigError maps service errors onto HTTP statuses. Validation
// failures carry the full violation list so clients can highlight fields.
func writeConfigError(w http.ResponseWriter, err error) {
	var unknownErr *schema.UnknownCategoryError
	if errors.As(err, &unknownErr) {
		writeError(w, http.StatusBadRequest, unknownErr.Error())
		return
	}
	var valErr *schema.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": valErr.Errors,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "storage failure")
}

// handleGetConfig handles GET /v1/config/{category}.
func (s *TrackerServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cat := schema.Category(r.PathValue("category"))

	value, err := s.configs.Get(r.Context(), cat)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": cat,
		"data":     json.RawMessage(value),
	})
}

// handleSetConfig handles PUT /v1/config/{category}.
func (s *TrackerServer) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	cat := schema.Category(r.PathValue("category"))

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	value, err := s.configs.Set(r.Context(), cat, raw)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": cat,
		"data":     json.RawMessage(value),
	})
}

// handleResetConfig handles DELETE /v1/config/{category}: reset to default.
func (s *TrackerServer) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	cat := schema.Category(r.PathValue("category"))

	value, err := s.configs.Reset(r.Context(), cat)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": cat,
		"data":     json.RawMessage(value),
	})
}

// handleConfigHistory handles GET /v1/config/{category}/history?limit=N.
func (s *TrackerServer) handleConfigHistory(w http.ResponseWriter, r *http.Request) {
	cat := schema.Category(r.PathValue("category"))

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.configs.History(r.Context(), cat, limit)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": cat,
		"history":  entries,
	})
}

// handleExportConfigs handles GET /v1/config.
func (s *TrackerServer) handleExportConfigs(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.configs.ExportAll(r.Context())
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleImportConfigs handles POST /v1/config/import.
func (s *TrackerServer) handleImportConfigs(w http.ResponseWriter, r *http.Request) {
	var snapshot model.ConfigSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	applied, err := s.configs.ImportAll(r.Context(), &snapshot)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	if applied == nil {
		applied = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": applied})
}

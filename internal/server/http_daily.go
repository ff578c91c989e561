package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groblegark/cadence/internal/daily"
	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
)

// writeDailyError maps daily-service errors onto HTTP statuses. A disabled
// backend is 501 so clients can tell "not configured" apart from failure.
func writeDailyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, daily.ErrBackendDisabled):
		writeError(w, http.StatusNotImplemented, "metrics backend disabled")
	case errors.Is(err, daily.ErrNotFound):
		writeError(w, http.StatusNotFound, "no metrics for date")
	default:
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
}

// handleGetDaily handles GET /v1/daily?date=YYYY-MM-DD.
func (s *TrackerServer) handleGetDaily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	row, err := s.daily.GetByDate(r.Context(), date)
	if err != nil {
		writeDailyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleUpsertDaily handles POST /v1/daily.
func (s *TrackerServer) handleUpsertDaily(w http.ResponseWriter, r *http.Request) {
	var row model.DailyMetrics
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.daily.Upsert(r.Context(), &row); err != nil {
		writeDailyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &row)
}

// handleDailyRange handles GET /v1/daily/range?start=&end=.
func (s *TrackerServer) handleDailyRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	rows, err := s.daily.GetRange(r.Context(), start, end)
	if err != nil {
		writeDailyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// handleExportDaily handles GET /v1/daily/export.
func (s *TrackerServer) handleExportDaily(w http.ResponseWriter, r *http.Request) {
	export, err := s.daily.ExportAll(r.Context())
	if err != nil {
		writeDailyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// handleImportDaily handles POST /v1/daily/import.
func (s *TrackerServer) handleImportDaily(w http.ResponseWriter, r *http.Request) {
	var export model.DailyExport
	if err := json.NewDecoder(r.Body).Decode(&export); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	count, err := s.daily.ImportAll(r.Context(), &export)
	if err != nil {
		writeDailyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": count})
}

package ledger

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// maxUploadSize bounds receipt uploads; high-resolution phone photos can be
// large.
const maxUploadSize = int64(50 << 20) // 50MB

// setCORSHeaders sets CORS headers on a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes a plain error response with CORS headers set.
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set.
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// scanStatusResponse is the workflow state shown to clients.
type scanStatusResponse struct {
	State  State   `json:"state"`
	Record *Record `json:"record,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// handleScan accepts one uploaded file, runs the ingestion pipeline, and
// returns the staging record for review. Nothing is committed here.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), header.Filename)

	record, err := s.workflow.Scan(data, contentType)
	if err != nil {
		slog.Error("Error scanning receipt", "filename", header.Filename, "content_type", contentType, "error", err)
		if errors.Is(err, ErrScanInFlight) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, scanStatusResponse{State: StateReviewPending, Record: record})
}

// handleScanStatus reports the current workflow state.
func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	state, staging, failure := s.workflow.Status()
	writeJSON(w, http.StatusOK, scanStatusResponse{State: state, Record: staging, Error: failure})
}

// handleDiscardScan abandons the pending review.
func (s *Server) handleDiscardScan(w http.ResponseWriter, r *http.Request) {
	s.workflow.Discard()
	w.WriteHeader(http.StatusNoContent)
}

// handleCommitRecord appends the reviewed record to the ledger.
func (s *Server) handleCommitRecord(w http.ResponseWriter, r *http.Request) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	stored, err := s.workflow.Commit(rec)
	if err != nil {
		slog.Error("Error committing record", "error", err)
		if errors.Is(err, ErrNoPendingReview) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, stored)
}

// handleListRecords returns the full ledger, newest first, plus the total.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Records()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var total int64
	for _, rec := range records {
		total += rec.Amount
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
	})
}

// handleGetRecord returns a single record.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	records, err := s.store.Records()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	for _, rec := range records {
		if rec.ID == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	corsError(w, "Record not found", http.StatusNotFound)
}

// handleUpdateRecord replaces a record in place.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.store.Replace(id, rec)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			corsError(w, "Record not found", http.StatusNotFound)
			return
		}
		slog.Error("Error updating record", "id", id, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteRecord removes a record.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Remove(id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			corsError(w, "Record not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting record", "id", id, "error", err)
		corsError(w, "Error deleting record", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleClearRecords empties the ledger.
func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(); err != nil {
		slog.Error("Error clearing ledger", "error", err)
		corsError(w, "Error clearing ledger", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleExport downloads the ledger as CSV (default) or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Records()
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename(time.Now(), "csv")+`"`)
		if err := WriteCSV(w, records); err != nil {
			slog.Error("Error writing CSV export", "error", err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename(time.Now(), "xlsx")+`"`)
		if err := WriteXLSX(w, records); err != nil {
			slog.Error("Error writing XLSX export", "error", err)
		}
	default:
		corsError(w, "Unknown export format", http.StatusBadRequest)
	}
}

// handleListModels fetches the extraction-capable model catalog. The result
// is cached in settings so that a catalog fetched once can still be
// presented when the provider is unreachable.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		slog.Error("Error reading settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if settings.APIKey == "" {
		jsonError(w, ErrNoAPIKey.Error(), http.StatusBadRequest)
		return
	}

	models, err := s.catalog.ListModels(r.Context(), settings.APIKey)
	if err != nil {
		cached, cacheErr := s.store.CachedModels()
		if cacheErr == nil && len(cached) > 0 {
			slog.Warn("Serving cached model catalog", "error", err)
			writeJSON(w, http.StatusOK, map[string]any{"models": cached, "cached": true})
			return
		}
		slog.Error("Error listing models", "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	if err := s.store.SaveCachedModels(models); err != nil {
		slog.Warn("Failed to cache model catalog", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

// settingsResponse never echoes the API key back; it only reports whether
// one is set.
type settingsResponse struct {
	ModelID   string `json:"model_id"`
	Theme     string `json:"theme"`
	APIKeySet bool   `json:"api_key_set"`
}

// handleGetSettings returns the persisted configuration.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		slog.Error("Error reading settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		ModelID:   settings.ModelID,
		Theme:     settings.Theme,
		APIKeySet: settings.APIKey != "",
	})
}

// handleUpdateSettings applies a partial settings update. Sending an empty
// api_key clears the stored key.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey  *string `json:"api_key"`
		ModelID *string `json:"model_id"`
		Theme   *string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := s.store.Settings()
	if err != nil {
		slog.Error("Error reading settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if req.APIKey != nil {
		settings.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.ModelID != nil && *req.ModelID != "" {
		settings.ModelID = *req.ModelID
	}
	if req.Theme != nil && *req.Theme != "" {
		settings.Theme = *req.Theme
	}

	if err := s.store.SaveSettings(settings); err != nil {
		slog.Error("Error saving settings", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		ModelID:   settings.ModelID,
		Theme:     settings.Theme,
		APIKeySet: settings.APIKey != "",
	})
}

// detectContentType falls back to the filename extension when the upload
// did not declare a type.
func detectContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

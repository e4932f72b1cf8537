package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/optionscout/backend/internal/scan"
	"github.com/optionscout/backend/pkg/logger"
)

// ScanHandler exposes the scan flow over HTTP.
type ScanHandler struct {
	service *scan.Service
	logger  *logger.Logger
}

// NewScanHandler creates a scan handler.
func NewScanHandler(service *scan.Service, log *logger.Logger) *ScanHandler {
	return &ScanHandler{service: service, logger: log}
}

// scanRequest is the POST /api/scan body. All fields are optional; unset
// fields fall back to configuration.
type scanRequest struct {
	Symbols    []string `json:"symbols"`
	TargetSize int      `json:"target_size"`
	TopN       int      `json:"top_n"`
	BudgetMS   int64    `json:"budget_ms"`
	Discovery  struct {
		Enabled  bool   `json:"enabled"`
		ScanCode string `json:"scan_code"`
	} `json:"discovery"`
}

// RunScan triggers one budgeted scan and returns the ranked result.
func (h *ScanHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	opts := scan.RunOptions{
		Symbols:    req.Symbols,
		TargetSize: req.TargetSize,
		TopN:       req.TopN,
		Budget:     time.Duration(req.BudgetMS) * time.Millisecond,
	}
	opts.Discovery.Enabled = req.Discovery.Enabled
	opts.Discovery.ScanCode = req.Discovery.ScanCode

	result, err := h.service.Run(r.Context(), opts)
	if err != nil {
		h.logger.WithError(err).Error("Scan request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetLatest returns the most recent scan result.
func (h *ScanHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Latest(r.Context())
	if err != nil {
		if errors.Is(err, scan.ErrNoRuns) {
			respondError(w, http.StatusNotFound, "no scan runs yet")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListRuns returns recent run summaries. Supports ?limit=N, default 20.
func (h *ScanHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

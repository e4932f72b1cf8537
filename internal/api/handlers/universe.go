package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/scanner"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
	"github.com/optionscout/backend/pkg/redis"
)

// universeTTL bounds the cached universe snapshot per scan code.
const universeTTL = 10 * time.Minute

// UniverseHandler exposes dynamic-universe building over HTTP.
type UniverseHandler struct {
	cfg     config.AnalysisConfig
	builder *scanner.UniverseBuilder
	cache   *redis.Cache // optional
	logger  *logger.Logger
}

// NewUniverseHandler creates a universe handler. cache may be nil.
func NewUniverseHandler(cfg config.AnalysisConfig, builder *scanner.UniverseBuilder, cache *redis.Cache, log *logger.Logger) *UniverseHandler {
	return &UniverseHandler{cfg: cfg, builder: builder, cache: cache, logger: log}
}

type universeRequest struct {
	Symbols    []string `json:"symbols"`
	TargetSize int      `json:"target_size"`
	Discovery  struct {
		Enabled  bool   `json:"enabled"`
		ScanCode string `json:"scan_code"`
	} `json:"discovery"`
}

// Build constructs a scan universe without running a scan.
func (h *UniverseHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req universeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	base := req.Symbols
	if len(base) == 0 {
		base = h.cfg.BaseUniverse
	}
	targetSize := req.TargetSize
	if targetSize <= 0 {
		targetSize = h.cfg.UniverseSize
	}
	opts := contracts.DiscoveryOptions{
		Enabled:  req.Discovery.Enabled,
		ScanCode: req.Discovery.ScanCode,
	}

	result, err := h.builder.Build(r.Context(), base, targetSize, opts)
	if err != nil {
		h.logger.WithError(err).Error("Universe request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		code := opts.ScanCode
		if code == "" {
			code = scanner.DefaultScanCode
		}
		if err := h.cache.Set(r.Context(), redis.UniverseKey(code), result, universeTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache universe")
		}
	}

	respondJSON(w, http.StatusOK, result)
}

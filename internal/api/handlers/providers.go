package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/policy"
	"github.com/optionscout/backend/internal/scanner"
	"github.com/optionscout/backend/pkg/logger"
)

// ProviderHandler exposes discovery-provider reliability and the runtime
// data-preference override.
type ProviderHandler struct {
	policy      *policy.ConfigSource
	reliability *scanner.Reliability
	providers   []string
	logger      *logger.Logger
}

// NewProviderHandler creates a provider handler. providers lists the
// registered scanner-provider names in registration order.
func NewProviderHandler(pol *policy.ConfigSource, reliability *scanner.Reliability, providers []string, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{policy: pol, reliability: reliability, providers: providers, logger: log}
}

type providerStats struct {
	Provider            string  `json:"provider"`
	Score               float64 `json:"score"`
	Attempts            int     `json:"attempts"`
	Successes           int     `json:"successes"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
}

// GetRanking returns the current reliability stats of every registered
// discovery provider, plus the active policy.
func (h *ProviderHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	stats := make([]providerStats, 0, len(h.providers))
	for _, name := range h.providers {
		attempts, successes, consecutive := h.reliability.Snapshot(name)
		stats = append(stats, providerStats{
			Provider:            name,
			Score:               h.reliability.Score(name, 0),
			Attempts:            attempts,
			Successes:           successes,
			ConsecutiveFailures: consecutive,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"preference":    h.policy.DataPreference(),
		"scanner_order": h.policy.ScannerOrder(),
		"providers":     stats,
	})
}

type preferenceRequest struct {
	Preference string `json:"preference"`
}

// SetPreference overrides the data preference at runtime. The override
// lasts until the process restarts.
func (h *ProviderHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	pref := contracts.DataPreference(req.Preference)
	switch pref {
	case contracts.PreferAuto, contracts.PreferBroker, contracts.PreferVendor:
	default:
		respondError(w, http.StatusBadRequest, "preference must be one of: auto, broker-only, vendor-only")
		return
	}

	h.policy.SetDataPreference(pref)
	h.logger.WithField("preference", pref).Info("Data preference overridden")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"preference": pref,
	})
}

package policy

import (
	"sync"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
)

// ConfigSource is the default PolicySource, seeded from configuration and
// adjustable at runtime (the API exposes a preference override). Reads are
// frequent and concurrent; writes are rare.
type ConfigSource struct {
	mu         sync.RWMutex
	preference contracts.DataPreference
	order      []string
}

// FromConfig builds the policy source from the analysis configuration.
func FromConfig(cfg config.AnalysisConfig) *ConfigSource {
	return &ConfigSource{
		preference: contracts.DataPreference(cfg.DataPreference),
		order:      append([]string(nil), cfg.ScannerOrder...),
	}
}

// DataPreference returns the current provider-family preference.
func (s *ConfigSource) DataPreference() contracts.DataPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preference
}

// ScannerOrder returns the preferred discovery-provider order.
func (s *ConfigSource) ScannerOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// SetDataPreference overrides the provider-family preference.
func (s *ConfigSource) SetDataPreference(pref contracts.DataPreference) {
	s.mu.Lock()
	s.preference = pref
	s.mu.Unlock()
}

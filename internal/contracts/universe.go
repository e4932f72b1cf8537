package contracts

// DataPreference selects which provider family the resolver should try first.
type DataPreference string

const (
	PreferAuto   DataPreference = "auto"
	PreferBroker DataPreference = "broker-only"
	PreferVendor DataPreference = "vendor-only"
)

// PolicySource resolves data-provider preferences at call time. Read-only to
// this layer; the default implementation reads configuration.
type PolicySource interface {
	DataPreference() DataPreference
	ScannerOrder() []string
}

// DiscoveryOptions controls dynamic-universe discovery.
type DiscoveryOptions struct {
	Enabled  bool   `json:"enabled"`
	ScanCode string `json:"scan_code,omitempty"` // e.g. "MOST_ACTIVE", "HIGH_OPEN_GAP"
}

// ProviderScore is one entry of a discovery-provider ranking.
type ProviderScore struct {
	Provider string  `json:"provider"`
	Score    float64 `json:"score"`
}

// DynamicUniverseResult is the outcome of one universe-building call.
// Immutable once returned.
type DynamicUniverseResult struct {
	Symbols        []string        `json:"symbols"`
	Discovered     []string        `json:"discovered"`
	ProvidersUsed  []string        `json:"providers_used"`  // contributed at least one new symbol
	ProvidersTried []string        `json:"providers_tried"` // attempted regardless of outcome
	Ranking        []ProviderScore `json:"ranking"`
	ScannerUsed    bool            `json:"scanner_used"`
	FallbackReason string          `json:"fallback_reason,omitempty"`
}

package contracts

import "time"

// SymbolComputation is the per-symbol bundle assembled by the scan
// orchestrator and consumed by the scoring layer.
type SymbolComputation struct {
	Symbol   string                    `json:"symbol"`
	Snapshot Sourced[SnapshotHistory]  `json:"snapshot"`
	Chain    Sourced[[]OptionContract] `json:"chain"`
	Context  ContextEvidence           `json:"context"`

	// Cross-sectional enrichment, relative to the benchmark symbol.
	RelReturn20 float64 `json:"rel_return_20"` // clamped to [-1, 1]
	RelReturn60 float64 `json:"rel_return_60"` // clamped to [-1, 1]

	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// FullyLive reports whether every channel of the bundle came from a live source.
func (c *SymbolComputation) FullyLive() bool {
	return c.Snapshot.Source.Live() && c.Chain.Source.Live()
}

// Scorer assigns a composite score to a computed bundle. The scoring formulas
// themselves live outside this layer.
type Scorer interface {
	Score(comp *SymbolComputation) float64
}

// ScanResult is the outcome of one budgeted scan run.
type ScanResult struct {
	RunID            string                `json:"run_id"`
	Ranked           []*SymbolComputation  `json:"ranked"`
	Universe         DynamicUniverseResult `json:"universe"`
	Benchmark        string                `json:"benchmark,omitempty"`
	AttemptedSymbols int                   `json:"attempted_symbols"`
	CompletedSymbols int                   `json:"completed_symbols"`
	TimedOut         bool                  `json:"timed_out"`
	Reason           string                `json:"reason,omitempty"`
	Duration         time.Duration         `json:"duration"`
	StartedAt        time.Time             `json:"started_at"`
}

package scanner

import (
	"sync"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

// Reliability tracks discovery-provider outcomes for the lifetime of the
// process and turns them into a ranking score. No persistence: a restart
// gives every provider a clean slate.
type Reliability struct {
	mu    sync.Mutex
	stats map[string]*providerStats
}

type providerStats struct {
	attempts            int
	successes           int
	consecutiveFailures int
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
}

// Scoring parameters. The broker gateway degrades harder on repeated
// failures because a dead gateway tends to stay dead for the session.
const (
	successRateWeight = 0.2
	failureStep       = 0.1
	brokerFailureStep = 0.2
	failurePenaltyCap = 0.6
)

// baseQuality ranks providers by the trustworthiness of their output.
var baseQuality = map[string]float64{
	string(contracts.SourceBroker):       0.9,
	string(contracts.SourceAlphaVantage): 0.6,
	string(contracts.SourceFinnhub):      0.5,
	string(contracts.SourceLLM):          0.2,
}

// NewReliability creates an empty tracker.
func NewReliability() *Reliability {
	return &Reliability{stats: make(map[string]*providerStats)}
}

// RecordSuccess notes a successful discovery call.
func (r *Reliability) RecordSuccess(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(provider)
	s.attempts++
	s.successes++
	s.consecutiveFailures = 0
	s.lastSuccessAt = time.Now()
}

// RecordFailure notes a failed or timed-out discovery call.
func (r *Reliability) RecordFailure(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(provider)
	s.attempts++
	s.consecutiveFailures++
	s.lastFailureAt = time.Now()
}

// Score computes the ranking score for a provider. orderBonus rewards the
// position in the configured scanner order; the failure penalty is capped so
// a provider can always claw its way back.
func (r *Reliability) Score(provider string, orderBonus float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(provider)

	// Untried providers get full benefit of the doubt.
	successRate := 1.0
	if s.attempts > 0 {
		successRate = float64(s.successes) / float64(s.attempts)
	}

	step := failureStep
	if provider == string(contracts.SourceBroker) {
		step = brokerFailureStep
	}
	penalty := float64(s.consecutiveFailures) * step
	if penalty > failurePenaltyCap {
		penalty = failurePenaltyCap
	}

	return baseQuality[provider] + successRate*successRateWeight + orderBonus - penalty
}

// Snapshot returns the current stats for a provider (zero value if untried).
func (r *Reliability) Snapshot(provider string) (attempts, successes, consecutiveFailures int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(provider)
	return s.attempts, s.successes, s.consecutiveFailures
}

func (r *Reliability) get(provider string) *providerStats {
	s, ok := r.stats[provider]
	if !ok {
		s = &providerStats{}
		r.stats[provider] = s
	}
	return s
}

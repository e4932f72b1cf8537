package contracts

import (
	"strings"
	"unicode/utf8"
)

// Source identifies which provider (or the synthetic generator) produced a value.
type Source string

const (
	SourceBroker       Source = "broker"
	SourceBrokerStream Source = "broker-stream"
	SourceTradier      Source = "tradier"
	SourceFinnhub      Source = "finnhub"
	SourceAlphaVantage Source = "alphavantage"
	SourceEDGAR        Source = "edgar"
	SourceFRED         Source = "fred"
	SourceLLM          Source = "llm"
	SourceSynthetic    Source = "synthetic"
	SourceNone         Source = "none"
)

// Live reports whether the source delivered real market data.
func (s Source) Live() bool {
	return s != SourceSynthetic && s != SourceNone && s != ""
}

// maxNoteLen caps the joined degradation note for observability.
const maxNoteLen = 400

// Sourced pairs a value with its provenance. Every value this layer hands
// downstream carries a Source; when the path was not fully live the Notes
// explain the degradation.
type Sourced[T any] struct {
	Value  T        `json:"value"`
	Source Source   `json:"source"`
	Notes  []string `json:"notes,omitempty"`
}

// WithSource wraps value with its provenance.
func WithSource[T any](value T, source Source, notes ...string) Sourced[T] {
	return Sourced[T]{Value: value, Source: source, Notes: notes}
}

// AddNote appends a note, skipping duplicates.
func (s *Sourced[T]) AddNote(note string) {
	if note == "" {
		return
	}
	for _, existing := range s.Notes {
		if existing == note {
			return
		}
	}
	s.Notes = append(s.Notes, note)
}

// Note returns the accumulated notes joined into one capped string.
func (s Sourced[T]) Note() string {
	return JoinNotes(s.Notes)
}

// JoinNotes joins notes with "; ", de-duplicated and capped at maxNoteLen.
func JoinNotes(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	seen := make(map[string]bool, len(notes))
	unique := make([]string, 0, len(notes))
	for _, note := range notes {
		if note == "" || seen[note] {
			continue
		}
		seen[note] = true
		unique = append(unique, note)
	}
	joined := strings.Join(unique, "; ")
	if len(joined) > maxNoteLen {
		cut := maxNoteLen - 3
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut] + "..."
	}
	return joined
}

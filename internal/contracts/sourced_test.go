package contracts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSourced_AddNote(t *testing.T) {
	s := WithSource(Quote{Symbol: "SPY"}, SourceTradier)

	s.AddNote("broker: provider disabled")
	s.AddNote("broker: provider disabled") // duplicate
	s.AddNote("")                          // ignored
	s.AddNote("quote served from secondary vendor")

	if len(s.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d: %v", len(s.Notes), s.Notes)
	}
	if got := s.Note(); got != "broker: provider disabled; quote served from secondary vendor" {
		t.Errorf("Note() = %q", got)
	}
}

func TestJoinNotes_Cap(t *testing.T) {
	long := strings.Repeat("x", 300)
	joined := JoinNotes([]string{long, strings.Repeat("y", 300)})

	if len(joined) > maxNoteLen {
		t.Errorf("joined note length %d exceeds cap %d", len(joined), maxNoteLen)
	}
	if !strings.HasSuffix(joined, "...") {
		t.Errorf("capped note should end with ellipsis, got %q", joined[len(joined)-10:])
	}
}

func TestJoinNotes_CapKeepsValidUTF8(t *testing.T) {
	joined := JoinNotes([]string{strings.Repeat("é", maxNoteLen)})

	if len(joined) > maxNoteLen {
		t.Errorf("joined note length %d exceeds cap %d", len(joined), maxNoteLen)
	}
	if !utf8.ValidString(joined) {
		t.Errorf("capped note split a rune: %q", joined)
	}
	if !strings.HasSuffix(joined, "...") {
		t.Errorf("capped note should end with ellipsis, got %q", joined)
	}
}

func TestSource_Live(t *testing.T) {
	tests := []struct {
		source Source
		want   bool
	}{
		{SourceBroker, true},
		{SourceBrokerStream, true},
		{SourceTradier, true},
		{SourceSynthetic, false},
		{SourceNone, false},
		{Source(""), false},
	}

	for _, tt := range tests {
		if got := tt.source.Live(); got != tt.want {
			t.Errorf("Source(%q).Live() = %v, want %v", tt.source, got, tt.want)
		}
	}
}

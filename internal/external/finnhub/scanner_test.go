package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.Nop()
	return NewClient(config.FinnhubConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, httputil.New(log), log)
}

func TestGetScannerSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[
			{"headline":"a","related":"AAPL,TSLA"},
			{"headline":"b","related":"AAPL"},
			{"headline":"c","related":"tsla, nvda"},
			{"headline":"d","related":"BRK.B,AAPL"}
		]`))
	})

	symbols, note, err := client.GetScannerSymbols(context.Background(), 2, "MOST_ACTIVE")
	if err != nil {
		t.Fatalf("GetScannerSymbols() error = %v", err)
	}
	if note == "" {
		t.Error("expected a provenance note")
	}

	// AAPL mentioned 3x, TSLA 2x; NVDA trimmed by limit, BRK.B dropped
	// because dotted classes are not plain option underlyings.
	want := []string{"AAPL", "TSLA"}
	if len(symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %q, want %q", i, symbols[i], want[i])
		}
	}
}

func TestGetScannerSymbols_Disabled(t *testing.T) {
	log := logger.Nop()
	client := NewClient(config.FinnhubConfig{}, httputil.New(log), log)

	_, _, err := client.GetScannerSymbols(context.Background(), 10, "MOST_ACTIVE")
	if !contracts.IsDisabled(err) {
		t.Errorf("missing API key should return ErrDisabled, got %v", err)
	}
}

func TestGetNews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/company-news":
			w.Write([]byte(`[
				{"datetime":1756400000,"headline":"Earnings beat"},
				{"datetime":0,"headline":"no timestamp"},
				{"datetime":1756300000,"headline":""}
			]`))
		case "/news-sentiment":
			w.Write([]byte(`{"sentiment":{"bullishPercent":0.7,"bearishPercent":0.2}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	snapshot, err := client.GetNewsSnapshot(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetNewsSnapshot() error = %v", err)
	}
	if len(snapshot.Articles) != 1 {
		t.Fatalf("articles = %d, want 1 (invalid items dropped)", len(snapshot.Articles))
	}
	if snapshot.Sentiment != 0.5 {
		t.Errorf("sentiment = %v, want 0.5", snapshot.Sentiment)
	}
	if snapshot.Articles[0].Scored {
		t.Error("finnhub articles must not be marked per-article scored")
	}
}

package llm

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

func TestParseTickerList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    []string
	}{
		{
			name:    "clean list",
			content: "AAPL, MSFT, NVDA",
			limit:   5,
			want:    []string{"AAPL", "MSFT", "NVDA"},
		},
		{
			name:    "prose and markdown stripped",
			content: "Sure! Here are some tickers:\n* AAPL\n* TSLA\n* `AMD`",
			limit:   5,
			want:    []string{"AAPL", "TSLA", "AMD"},
		},
		{
			name:    "duplicates and junk dropped",
			content: "AAPL, aapl, BRK.B, TOOLONGG, 123, SPY, AAPL",
			limit:   5,
			want:    []string{"AAPL", "SPY"},
		},
		{
			name:    "limit enforced",
			content: "AAPL, MSFT, NVDA, TSLA",
			limit:   2,
			want:    []string{"AAPL", "MSFT"},
		},
		{
			name:    "refusal prose yields nothing",
			content: "sorry, i cannot help with that request",
			limit:   5,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTickerList(tt.content, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("parseTickerList() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetScannerSymbols(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"NVDA, TSLA, PLTR"}}]}`))
	}))
	defer server.Close()

	log := logger.Nop()
	client := NewClient(config.LLMConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	}, httputil.New(log), log)

	symbols, note, err := client.GetScannerSymbols(context.Background(), 10, "MOST_ACTIVE")
	if err != nil {
		t.Fatalf("GetScannerSymbols() error = %v", err)
	}
	if len(symbols) != 3 || symbols[0] != "NVDA" {
		t.Errorf("symbols = %v", symbols)
	}
	if note == "" {
		t.Error("llm results must carry a provenance note")
	}
}

func TestGetScannerSymbols_Disabled(t *testing.T) {
	log := logger.Nop()
	client := NewClient(config.LLMConfig{}, httputil.New(log), log)

	_, _, err := client.GetScannerSymbols(context.Background(), 10, "MOST_ACTIVE")
	if !contracts.IsDisabled(err) {
		t.Errorf("missing API key should return ErrDisabled, got %v", err)
	}
}

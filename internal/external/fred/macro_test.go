package fred

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

func TestCondenseMacro(t *testing.T) {
	tests := []struct {
		name       string
		vix        float64
		spread     float64
		haveSpread bool
		wantRegime string
	}{
		{name: "calm market", vix: 13, wantRegime: "risk-on"},
		{name: "stressed market", vix: 32, wantRegime: "risk-off"},
		{name: "middling vix", vix: 22.5, wantRegime: "neutral"},
		{name: "inverted curve drags neutral to risk-off", vix: 24, spread: -0.4, haveSpread: true, wantRegime: "risk-off"},
		{name: "positive curve leaves score alone", vix: 24, spread: 0.6, haveSpread: true, wantRegime: "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := condenseMacro(tt.vix, tt.spread, tt.haveSpread)
			if got.Regime != tt.wantRegime {
				t.Errorf("regime = %q (score %v), want %q", got.Regime, got.Score, tt.wantRegime)
			}
			if got.Score > 1 || got.Score < -1 {
				t.Errorf("score %v out of range", got.Score)
			}
		})
	}
}

func TestGetMacro_SkipsMissingObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("series_id") {
		case seriesVIX:
			w.Write([]byte(`{"observations":[{"date":"2026-08-28","value":"."},{"date":"2026-08-27","value":"14.2"}]}`))
		case seriesYieldCurve:
			w.Write([]byte(`{"observations":[{"date":"2026-08-28","value":"0.55"}]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	log := logger.Nop()
	client := NewClient(config.FREDConfig{BaseURL: server.URL, APIKey: "k"}, httputil.New(log), log)

	snapshot, err := client.GetMacroSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetMacroSnapshot() error = %v", err)
	}
	if snapshot.Regime != "risk-on" {
		t.Errorf("regime = %q, want risk-on", snapshot.Regime)
	}
}

func TestGetMacro_Disabled(t *testing.T) {
	log := logger.Nop()
	client := NewClient(config.FREDConfig{}, httputil.New(log), log)

	_, err := client.GetMacroSnapshot(context.Background())
	if !contracts.IsDisabled(err) {
		t.Errorf("missing API key should return ErrDisabled, got %v", err)
	}
}

package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8087" {
		t.Errorf("Expected Port to be 8087, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Analysis.DataPreference != "auto" {
		t.Errorf("Expected DataPreference to be auto, got %s", cfg.Analysis.DataPreference)
	}

	if cfg.Analysis.QuoteTTL != 20*time.Second {
		t.Errorf("Expected QuoteTTL to be 20s, got %s", cfg.Analysis.QuoteTTL)
	}

	if len(cfg.Analysis.ScannerOrder) != 4 {
		t.Errorf("Expected 4 scanner providers, got %v", cfg.Analysis.ScannerOrder)
	}

	if len(cfg.Analysis.BaseUniverse) == 0 {
		t.Error("Expected a non-empty default base universe")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("DATA_PREFERENCE", "broker-only")
	os.Setenv("ANALYSIS_BUDGET", "5s")
	os.Setenv("SCANNER_ORDER", "broker, llm")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("DATA_PREFERENCE")
		os.Unsetenv("ANALYSIS_BUDGET")
		os.Unsetenv("SCANNER_ORDER")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Analysis.DataPreference != "broker-only" {
		t.Errorf("Expected DataPreference to be broker-only, got %s", cfg.Analysis.DataPreference)
	}

	if cfg.Analysis.Budget != 5*time.Second {
		t.Errorf("Expected Budget to be 5s, got %s", cfg.Analysis.Budget)
	}

	want := []string{"broker", "llm"}
	if len(cfg.Analysis.ScannerOrder) != len(want) {
		t.Fatalf("Expected scanner order %v, got %v", want, cfg.Analysis.ScannerOrder)
	}
	for i, provider := range want {
		if cfg.Analysis.ScannerOrder[i] != provider {
			t.Errorf("ScannerOrder[%d] = %s, want %s", i, cfg.Analysis.ScannerOrder[i], provider)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid env",
			mutate:  func(c *Config) { c.Env = "local" },
			wantErr: true,
		},
		{
			name:    "invalid data preference",
			mutate:  func(c *Config) { c.Analysis.DataPreference = "yahoo-only" },
			wantErr: true,
		},
		{
			name:    "zero top N",
			mutate:  func(c *Config) { c.Analysis.TopN = 0 },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Analysis.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "zero universe size",
			mutate:  func(c *Config) { c.Analysis.UniverseSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Env: "development",
				Analysis: AnalysisConfig{
					DataPreference: "auto",
					TopN:           10,
					UniverseSize:   15,
					Workers:        4,
					BrokerWorkers:  2,
				},
			}
			tt.mutate(cfg)

			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

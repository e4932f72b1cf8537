package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Broker       BrokerConfig
	Tradier      TradierConfig
	Finnhub      FinnhubConfig
	AlphaVantage AlphaVantageConfig
	EDGAR        EDGARConfig
	FRED         FREDConfig
	LLM          LLMConfig

	// Analysis
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// BrokerConfig holds broker gateway configuration. The gateway is a
// self-hosted process, so there is no API key; an unreachable or disabled
// gateway is an expected condition.
type BrokerConfig struct {
	BaseURL       string
	WSURL         string
	Enabled       bool
	ClientTimeout time.Duration // also drives the scanner call budget
	RateLimit     int           // requests per second on the REST path
}

// TradierConfig holds the secondary market-data vendor configuration.
type TradierConfig struct {
	BaseURL string
	APIKey  string
}

// FinnhubConfig holds Finnhub API configuration.
type FinnhubConfig struct {
	BaseURL string
	APIKey  string
}

// AlphaVantageConfig holds Alpha Vantage API configuration.
type AlphaVantageConfig struct {
	BaseURL string
	APIKey  string
}

// EDGARConfig holds SEC EDGAR configuration. EDGAR requires a descriptive
// User-Agent instead of an API key.
type EDGARConfig struct {
	BaseURL   string
	UserAgent string
	Enabled   bool
}

// FREDConfig holds FRED macro-data configuration.
type FREDConfig struct {
	BaseURL string
	APIKey  string
}

// LLMConfig holds the LLM discovery provider configuration
// (OpenAI-compatible chat completions endpoint).
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// AnalysisConfig holds scan orchestration parameters.
type AnalysisConfig struct {
	DataPreference   string   // auto, broker-only, vendor-only
	ScannerOrder     []string // preferred discovery provider order
	BaseUniverse     []string // always-scanned symbols
	UniverseSize     int      // discovery tops the base up to this size
	Budget           time.Duration
	PerSymbolTimeout time.Duration
	TopN             int
	Workers          int // worker pool size when a REST vendor is primary
	BrokerWorkers    int // smaller pool when the rate-limit-sensitive broker is primary
	QuoteTTL         time.Duration
	BarsTTL          time.Duration
	ChainTTL         time.Duration
	ContextTTL       time.Duration
	MacroTTL         time.Duration
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Broker: BrokerConfig{
			BaseURL:       getEnv("BROKER_BASE_URL", "https://localhost:5000/v1/api"),
			WSURL:         getEnv("BROKER_WS_URL", "wss://localhost:5000/v1/api/ws"),
			Enabled:       getEnvAsBool("BROKER_ENABLED", false),
			ClientTimeout: getEnvAsDuration("BROKER_CLIENT_TIMEOUT", "8s"),
			RateLimit:     getEnvAsInt("BROKER_RATE_LIMIT", 5),
		},

		Tradier: TradierConfig{
			BaseURL: getEnv("TRADIER_BASE_URL", "https://api.tradier.com/v1"),
			APIKey:  getEnv("TRADIER_API_KEY", ""),
		},

		Finnhub: FinnhubConfig{
			BaseURL: getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			APIKey:  getEnv("FINNHUB_API_KEY", ""),
		},

		AlphaVantage: AlphaVantageConfig{
			BaseURL: getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			APIKey:  getEnv("ALPHAVANTAGE_API_KEY", ""),
		},

		EDGAR: EDGARConfig{
			BaseURL:   getEnv("EDGAR_BASE_URL", "https://www.sec.gov"),
			UserAgent: getEnv("EDGAR_USER_AGENT", ""),
			Enabled:   getEnvAsBool("EDGAR_ENABLED", true),
		},

		FRED: FREDConfig{
			BaseURL: getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
			APIKey:  getEnv("FRED_API_KEY", ""),
		},

		LLM: LLMConfig{
			BaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("LLM_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
		},

		// Analysis
		Analysis: AnalysisConfig{
			DataPreference:   getEnv("DATA_PREFERENCE", "auto"),
			ScannerOrder:     getEnvAsList("SCANNER_ORDER", "broker,alphavantage,finnhub,llm"),
			BaseUniverse:     getEnvAsList("BASE_UNIVERSE", "SPY,QQQ,AAPL,MSFT,NVDA,AMZN,TSLA"),
			UniverseSize:     getEnvAsInt("UNIVERSE_SIZE", 15),
			Budget:           getEnvAsDuration("ANALYSIS_BUDGET", "9s"),
			PerSymbolTimeout: getEnvAsDuration("ANALYSIS_SYMBOL_TIMEOUT", "3s"),
			TopN:             getEnvAsInt("ANALYSIS_TOP_N", 10),
			Workers:          getEnvAsInt("ANALYSIS_WORKERS", 4),
			BrokerWorkers:    getEnvAsInt("ANALYSIS_BROKER_WORKERS", 2),
			QuoteTTL:         getEnvAsDuration("CACHE_QUOTE_TTL", "20s"),
			BarsTTL:          getEnvAsDuration("CACHE_BARS_TTL", "10m"),
			ChainTTL:         getEnvAsDuration("CACHE_CHAIN_TTL", "5m"),
			ContextTTL:       getEnvAsDuration("CACHE_CONTEXT_TTL", "5m"),
			MacroTTL:         getEnvAsDuration("CACHE_MACRO_TTL", "15m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Analysis.DataPreference {
	case "auto", "broker-only", "vendor-only":
	default:
		return fmt.Errorf("DATA_PREFERENCE must be one of: auto, broker-only, vendor-only")
	}

	if c.Analysis.TopN <= 0 {
		return fmt.Errorf("ANALYSIS_TOP_N must be positive")
	}

	if c.Analysis.UniverseSize <= 0 {
		return fmt.Errorf("UNIVERSE_SIZE must be positive")
	}

	if c.Analysis.Workers <= 0 || c.Analysis.BrokerWorkers <= 0 {
		return fmt.Errorf("worker pool sizes must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

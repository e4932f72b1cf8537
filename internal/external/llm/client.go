package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Client asks an OpenAI-compatible chat endpoint for candidate tickers. It is
// the lowest-trust discovery provider: output is treated as a suggestion list
// and every symbol is validated before use.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.LLMConfig
}

// NewClient creates a new LLM discovery client.
func NewClient(cfg config.LLMConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	if cfg.APIKey != "" {
		httpClient = httpClient.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceLLM
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

const systemPrompt = "You are a market scanner. Reply with a comma-separated list of US stock tickers only, no prose."

// GetScannerSymbols asks the model for currently active optionable tickers.
func (c *Client) GetScannerSymbols(ctx context.Context, limit int, scanCode string) ([]string, string, error) {
	if c.cfg.APIKey == "" {
		return nil, "", contracts.Disabledf("llm")
	}

	prompt := fmt.Sprintf(
		"List up to %d liquid US stock tickers matching the theme %q. Large-cap, actively traded, with listed options.",
		limit, describeScanCode(scanCode))

	request := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   200,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.cfg.BaseURL+"/chat/completions", request)
	if err != nil {
		return nil, "", contracts.Unavailablef("llm request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", contracts.Unavailablef("llm status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, "", contracts.Invalidf("llm payload: %v", err)
	}
	if len(chat.Choices) == 0 {
		return nil, "", contracts.Unavailablef("llm: empty completion")
	}

	symbols := parseTickerList(chat.Choices[0].Message.Content, limit)
	if len(symbols) == 0 {
		return nil, "", contracts.Invalidf("llm: no valid tickers in completion")
	}

	return symbols, "llm-suggested candidates, unverified by a market scanner", nil
}

// parseTickerList extracts valid, de-duplicated tickers from model output.
// The model occasionally adds prose or markdown despite instructions.
func parseTickerList(content string, limit int) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '*' || r == '`'
	})

	seen := make(map[string]bool)
	symbols := make([]string, 0, limit)
	for _, field := range fields {
		// No case folding: lowercase prose must fail validation rather
		// than turn into accidental tickers.
		symbol := strings.TrimSpace(field)
		if !tickerPattern.MatchString(symbol) || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
		if len(symbols) >= limit {
			break
		}
	}

	return symbols
}

func describeScanCode(scanCode string) string {
	switch scanCode {
	case "TOP_PERC_GAIN":
		return "biggest percentage gainers today"
	case "TOP_PERC_LOSE":
		return "biggest percentage losers today"
	case "HIGH_OPEN_GAP":
		return "largest opening gaps today"
	default:
		return "most actively traded names this week"
	}
}

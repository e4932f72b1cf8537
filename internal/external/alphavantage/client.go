package alphavantage

import (
	"context"
	"fmt"
	"net/url"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Client handles communication with the Alpha Vantage API. Everything goes
// through a single query endpoint selected by the "function" parameter.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.AlphaVantageConfig
}

// NewClient creates a new Alpha Vantage client.
func NewClient(cfg config.AlphaVantageConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceAlphaVantage
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

func (c *Client) query(ctx context.Context, function string, params url.Values, dest interface{}) error {
	if c.cfg.APIKey == "" {
		return contracts.Disabledf("alphavantage")
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	params.Set("apikey", c.cfg.APIKey)

	fullURL := fmt.Sprintf("%s?%s", c.cfg.BaseURL, params.Encode())
	return c.httpClient.GetJSON(ctx, fullURL, dest)
}

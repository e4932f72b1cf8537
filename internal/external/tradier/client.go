package tradier

import (
	"context"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Client handles communication with the Tradier market-data API, the
// secondary vendor behind the broker gateway.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.TradierConfig
}

// NewClient creates a new Tradier client. The API key is sent as a bearer
// token on every request.
func NewClient(cfg config.TradierConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	if cfg.APIKey != "" {
		httpClient = httpClient.
			WithHeader("Authorization", "Bearer "+cfg.APIKey).
			WithHeader("Accept", "application/json")
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceTradier
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	if c.cfg.APIKey == "" {
		return contracts.Disabledf("tradier")
	}
	return c.httpClient.GetJSON(ctx, c.cfg.BaseURL+path, dest)
}

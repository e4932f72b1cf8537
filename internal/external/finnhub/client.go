package finnhub

import (
	"context"
	"fmt"
	"net/url"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Client handles communication with the Finnhub API. It serves two roles:
// company-news sentiment for the context resolver, and symbol discovery
// from market-news mentions for the universe builder.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.FinnhubConfig
}

// NewClient creates a new Finnhub client.
func NewClient(cfg config.FinnhubConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceFinnhub
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// getJSON appends the token query parameter; Finnhub authenticates every
// request that way rather than with a header.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if c.cfg.APIKey == "" {
		return contracts.Disabledf("finnhub")
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.cfg.APIKey)

	fullURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())
	return c.httpClient.GetJSON(ctx, fullURL, dest)
}

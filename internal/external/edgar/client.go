package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Client scrapes SEC EDGAR full-text filing listings. EDGAR has no API key
// but rejects requests without a descriptive User-Agent, so the client is
// disabled until one is configured.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.EDGARConfig
}

// NewClient creates a new EDGAR client.
func NewClient(cfg config.EDGARConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	if cfg.UserAgent != "" {
		httpClient = httpClient.WithHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceEDGAR
}

// Enabled reports whether the scraper may run.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.UserAgent != ""
}

func (c *Client) getHTML(ctx context.Context, path string, params url.Values) (io.ReadCloser, error) {
	if !c.Enabled() {
		return nil, contracts.Disabledf("edgar")
	}

	fullURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, contracts.Unavailablef("edgar request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, contracts.Unavailablef("edgar status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

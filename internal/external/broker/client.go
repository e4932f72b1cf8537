package broker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Client handles communication with the broker gateway, a self-hosted
// process that proxies the broker's trading API. The gateway is rate-limit
// sensitive, so every REST call goes through a local token-bucket limiter.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.BrokerConfig
	limiter    *rate.Limiter
}

// NewClient creates a new broker gateway client
func NewClient(cfg config.BrokerConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(limit), limit),
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceBroker
}

// Enabled reports whether the gateway is configured.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

// CallTimeout is the configured budget for one gateway call. The universe
// builder derives the broker scanner budget from it.
func (c *Client) CallTimeout() time.Duration {
	return c.cfg.ClientTimeout
}

// authStatus is the gateway session status payload.
type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	Connected     bool   `json:"connected"`
	Message       string `json:"message,omitempty"`
}

// CheckSession verifies the gateway session is live.
func (c *Client) CheckSession(ctx context.Context) error {
	if !c.cfg.Enabled {
		return contracts.Disabledf("broker gateway")
	}

	var status authStatus
	if err := c.getJSON(ctx, "/auth/status", &status); err != nil {
		return contracts.Unavailablef("broker session check: %v", err)
	}

	if !status.Authenticated || !status.Connected {
		return contracts.Unavailablef("broker session not live: %s", status.Message)
	}

	return nil
}

// getJSON performs a rate-limited GET against the gateway.
func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("broker rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ClientTimeout)
	defer cancel()

	url := c.cfg.BaseURL + path
	if err := c.httpClient.GetJSON(ctx, url, dest); err != nil {
		return err
	}

	return nil
}

// isNotFound reports whether err looks like a gateway 404, which the
// gateway uses for unknown symbols.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), fmt.Sprintf("unexpected status %d", http.StatusNotFound))
}

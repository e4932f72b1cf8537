package fred

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
)

// Series IDs used for the macro regime read.
const (
	seriesVIX        = "VIXCLS" // CBOE volatility index
	seriesYieldCurve = "T10Y2Y" // 10y minus 2y treasury spread
)

// Client fetches macro series from FRED and condenses them into a regime
// snapshot for the context resolver.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.FREDConfig
}

// NewClient creates a new FRED client.
func NewClient(cfg config.FREDConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// Name identifies this provider in provenance tags.
func (c *Client) Name() contracts.Source {
	return contracts.SourceFRED
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

type observationsPayload struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"` // "." when missing
	} `json:"observations"`
}

// latestValue returns the most recent non-missing observation of a series.
func (c *Client) latestValue(ctx context.Context, seriesID string) (float64, error) {
	if c.cfg.APIKey == "" {
		return 0, contracts.Disabledf("fred")
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.cfg.APIKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "10")

	var payload observationsPayload
	fullURL := fmt.Sprintf("%s/series/observations?%s", c.cfg.BaseURL, params.Encode())
	if err := c.httpClient.GetJSON(ctx, fullURL, &payload); err != nil {
		return 0, contracts.Unavailablef("fred %s: %v", seriesID, err)
	}

	for _, obs := range payload.Observations {
		if obs.Value == "." || obs.Value == "" {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		return value, nil
	}

	return 0, contracts.Unavailablef("fred %s: no usable observations", seriesID)
}

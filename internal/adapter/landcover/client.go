// Package landcover resolves the land-cover class of a coordinate pair
// against a raster lookup service.
package landcover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Client implements domain.LandcoverLookup against an HTTP service exposing
// the local-climate-zone raster.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a land-cover lookup client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Lookup returns the land-cover class at the given WGS-84 coordinates. An
// empty class from the service maps to the unknown sentinel.
func (c *Client) Lookup(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"lat": {fmt.Sprintf("%.6f", lat)},
		"lon": {fmt.Sprintf("%.6f", lon)},
	}
	fullURL := c.baseURL + "/v1/lookup?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("landcover lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("landcover API error: status %d: %s", resp.StatusCode, body)
	}

	var lookupResp response
	if err := json.NewDecoder(resp.Body).Decode(&lookupResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if lookupResp.Class == "" {
		return domain.LandcoverUnknown, nil
	}
	return lookupResp.Class, nil
}

type response struct {
	Class string `json:"class"`
}

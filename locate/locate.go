// Package locate implements a client for the M-Lab Locate v2 API. The
// Locate API maps the client to nearby servers able to run an ndt7
// measurement and issues time-limited access tokens for their endpoints.
package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/m-lab/ndt7-client/ndt7/errorx"
	"github.com/m-lab/ndt7-client/ndt7/spec"
)

// Target is a single server returned by the Locate API.
type Target struct {
	// Machine is the FQDN of the server.
	Machine string `json:"machine"`

	// URLs maps service keys (e.g. "wss:///ndt/v7/download") to
	// fully qualified URLs carrying an access token.
	URLs map[string]string `json:"urls"`
}

// results is the toplevel response returned by the Locate API.
type results struct {
	// Results contains nearby servers, closest first.
	Results []Target `json:"results"`
}

// Client is a Locate API client.
type Client struct {
	// BaseURL is the URL of the nearest-server endpoint.
	BaseURL string

	// UserAgent is the value of the User-Agent header.
	UserAgent string

	// HTTPClient performs the discovery request.
	HTTPClient *http.Client
}

// NewClient creates a Locate API client identifying itself with the
// given user agent.
func NewClient(userAgent string) *Client {
	return &Client{
		BaseURL:    spec.LocateURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: spec.IOTimeout},
	}
}

// Nearest returns the nearby servers able to run an ndt7 measurement,
// closest first. It fails with errorx.ErrNoCapacity when the platform
// is temporarily out of capacity, with errorx.ErrNoTargets when the
// response contains no servers, and with *errorx.DiscoveryError on any
// transport or HTTP failure. There are no retries: a failure here is
// terminal for this resolution attempt.
func (c *Client) Nearest(ctx context.Context) ([]Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return nil, &errorx.DiscoveryError{Err: err}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &errorx.DiscoveryError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil, errorx.ErrNoCapacity
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errorx.DiscoveryError{
			Err: fmt.Errorf("unexpected response status: %d", resp.StatusCode),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errorx.DiscoveryError{Err: err}
	}
	var reply results
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, &errorx.DiscoveryError{Err: err}
	}
	if len(reply.Results) < 1 {
		return nil, errorx.ErrNoTargets
	}
	return reply.Results, nil
}

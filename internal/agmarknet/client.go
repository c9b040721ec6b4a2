// Package agmarknet reads daily mandi prices from the data.gov.in
// Agmarknet resource.
package agmarknet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/config"
)

var (
	// ErrUpstream marks every failure talking to the price-data provider
	ErrUpstream = errors.New("upstream price provider failure")
	// ErrMissingAPIKey is returned before any request when no key is configured
	ErrMissingAPIKey = fmt.Errorf("%w: DATA_GOV_API_KEY missing", ErrUpstream)
)

// FetchError describes a failed provider call. StatusCode is zero for
// transport failures.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agmarknet: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "agmarknet: " + e.Message
}

// Unwrap lets callers match any FetchError with errors.Is(err, ErrUpstream)
func (e *FetchError) Unwrap() error {
	return ErrUpstream
}

// Query filters a fetch
type Query struct {
	Commodity string
	Market    string
	Limit     int
}

// Client calls the data.gov.in resource API
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewClient creates a provider client
func NewClient(cfg config.AgmarknetConfig) *Client {
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: cfg.BaseURL + "/" + cfg.ResourceID,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type response struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Records []Record `json:"records"`
}

// Fetch returns raw provider records matching q
func (c *Client) Fetch(ctx context.Context, q Query) ([]Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Commodity != "" {
		params.Set("filters[commodity]", q.Commodity)
	}
	if q.Market != "" {
		params.Set("filters[market]", q.Market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}

	log.Debug().
		Str("commodity", q.Commodity).
		Str("market", q.Market).
		Int("limit", q.Limit).
		Msg("Fetching from Agmarknet")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &FetchError{Message: "malformed payload: " + err.Error()}
	}
	if out.Status == "error" {
		return nil, &FetchError{Message: out.Message}
	}

	return out.Records, nil
}

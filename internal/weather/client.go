// Package weather fetches current conditions for a mandi's city from OpenWeather.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/config"
)

// ErrDisabled is returned when no API key is configured
var ErrDisabled = errors.New("weather provider not configured")

// Conditions are the current observations used to seed a forecast
type Conditions struct {
	City     string
	Temp     float64
	Humidity float64
	Rain     bool
}

// Client queries the OpenWeather current-weather endpoint
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a weather client
func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain map[string]float64 `json:"rain"`
}

// Current returns the current conditions in city
func (c *Client) Current(ctx context.Context, city string) (*Conditions, error) {
	if c.apiKey == "" {
		return nil, ErrDisabled
	}

	q := url.Values{}
	q.Set("q", city+",IN")
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().Int("status", resp.StatusCode).Str("city", city).Msg("Weather provider rejected request")
		return nil, fmt.Errorf("weather provider returned %d: %s", resp.StatusCode, body)
	}

	var cur currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return nil, fmt.Errorf("decode weather: %w", err)
	}

	name := cur.Name
	if name == "" {
		name = city
	}
	return &Conditions{
		City:     name,
		Temp:     cur.Main.Temp,
		Humidity: cur.Main.Humidity,
		Rain:     len(cur.Rain) > 0,
	}, nil
}

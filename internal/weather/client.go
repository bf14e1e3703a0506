// Package weather wraps the OpenWeatherMap current and forecast APIs and
// turns their kelvin readings into dashboard-ready reports.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

var (
	ErrCityNotFound = errors.New("city not found")
	ErrUnauthorized = errors.New("weather API key rejected")
)

// APIError is a non-2xx reply from OpenWeatherMap.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweathermap: status %d: %s", e.StatusCode, e.Message)
}

// Conditions is one weather reading. Temperatures are in kelvin.
type Conditions struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Description is the first weather description, if any.
func (c Conditions) Description() string {
	if len(c.Weather) == 0 {
		return ""
	}
	return c.Weather[0].Description
}

// CurrentResponse is the /weather payload.
type CurrentResponse struct {
	Conditions
	Name     string `json:"name"`
	Timezone int    `json:"timezone"`
	Sys      struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// ForecastResponse is the /forecast payload: 5 days in 3-hour steps.
type ForecastResponse struct {
	List []Conditions `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// Client calls OpenWeatherMap with one API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), apiKey: apiKey, httpClient: httpClient}
}

// Current fetches the current conditions for city.
func (c *Client) Current(ctx context.Context, city string) (*CurrentResponse, error) {
	var out CurrentResponse
	if err := c.get(ctx, "/weather", city, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches the 5-day / 3-hour forecast for city.
func (c *Client) Forecast(ctx context.Context, city string) (*ForecastResponse, error) {
	var out ForecastResponse
	if err := c.get(ctx, "/forecast", city, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path, city string, out interface{}) error {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		e := &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", ErrCityNotFound, city, e)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrUnauthorized, e)
		}
		return e
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

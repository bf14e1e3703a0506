package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	integration_models "promptdesk-backend/internal/models/integrations"
	"promptdesk-backend/internal/weather"
)

const probeCity = "London"

var _ Integration = (*OpenWeatherIntegration)(nil)

type OpenWeatherIntegration struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenWeatherIntegration(baseURL string, httpClient *http.Client) *OpenWeatherIntegration {
	return &OpenWeatherIntegration{baseURL: baseURL, httpClient: httpClient}
}

func (o *OpenWeatherIntegration) ValidateCredentials(creds integration_models.DecryptedCredentials) error {
	return requireFields(creds, "api_key")
}

// TestConnection fetches current conditions for a fixed city.
func (o *OpenWeatherIntegration) TestConnection(ctx context.Context, creds integration_models.DecryptedCredentials) (*integration_models.TestConnectionResult, error) {
	if creds["api_key"] == "" {
		return &integration_models.TestConnectionResult{Success: false, Message: "Missing 'api_key' in OpenWeather credentials"}, nil
	}
	client := weather.NewClient(o.baseURL, creds["api_key"], o.httpClient)
	cur, err := client.Current(ctx, probeCity)
	if err != nil {
		if errors.Is(err, weather.ErrUnauthorized) {
			return &integration_models.TestConnectionResult{Success: false, Message: "OpenWeather rejected the API key"}, nil
		}
		return nil, fmt.Errorf("failed during OpenWeather connection test: %w", err)
	}
	return &integration_models.TestConnectionResult{
		Success: true,
		Message: fmt.Sprintf("Fetched current weather for %s", cur.Name),
	}, nil
}

func (o *OpenWeatherIntegration) GetCredentialSchema() interface{} {
	return integration_models.OpenWeatherCredentials{}
}

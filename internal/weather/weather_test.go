package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"promptdesk-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKelvinConversions(t *testing.T) {
	assert.InDelta(t, 0, KelvinToCelsius(273.15), 1e-9)
	assert.InDelta(t, 32, KelvinToFahrenheit(273.15), 1e-9)
	assert.InDelta(t, 212, KelvinToFahrenheit(373.15), 1e-9)
	assert.InDelta(t, -273.15, KelvinToCelsius(0), 1e-9)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.35, Round(12.346, 2))
	assert.Equal(t, 12.3, Round(12.34, 1))
	assert.Equal(t, -1.5, Round(-1.46, 1))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func TestFromKelvin(t *testing.T) {
	assert.Equal(t, 20.0, FromKelvin(293.15, UnitsMetric))
	assert.Equal(t, 68.0, FromKelvin(293.15, UnitsImperial))
	assert.Equal(t, 20.0, FromKelvin(293.15, "kelvin"))
}

const currentJSON = `{"dt":1700000000,"name":"Paris","timezone":3600,"sys":{"country":"FR"},
"main":{"temp":288.15,"feels_like":287.15,"humidity":85},"wind":{"speed":3.46},
"weather":[{"main":"Rain","description":"light rain","icon":"10d"}]}`

const forecastJSON = `{"city":{"name":"Paris","country":"FR","timezone":3600},"list":[
{"dt":1700006400,"main":{"temp":283.15,"humidity":70},"weather":[{"description":"clouds"}]},
{"dt":1700017200,"main":{"temp":281.15,"humidity":75},"weather":[{"description":"clouds"}]},
{"dt":1700092800,"main":{"temp":290.15,"humidity":60},"weather":[{"description":"clear"}]}]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("q") == "Atlantis":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		case r.URL.Path == "/weather":
			_, _ = w.Write([]byte(currentJSON))
		case r.URL.Path == "/forecast":
			_, _ = w.Write([]byte(forecastJSON))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
}

func TestClientAndReport(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL+"/", "k", srv.Client())

	cur, err := c.Current(context.Background(), "Paris")
	require.NoError(t, err)
	fc, err := c.Forecast(context.Background(), "Paris")
	require.NoError(t, err)

	r := BuildReport(cur, fc, UnitsMetric)
	assert.Equal(t, "Paris", r.City)
	assert.Equal(t, "FR", r.Country)
	assert.Equal(t, 15.0, r.Current.Temperature)
	assert.Equal(t, 3.5, r.Current.WindSpeed)
	assert.Equal(t, "10d", r.Current.Icon)
	require.Len(t, r.Forecast, 3)
	assert.Equal(t, []float64{10, 8, 17}, r.Chart.Temperatures)
	assert.Equal(t, []int{70, 75, 60}, r.Chart.Humidity)
	// 1700006400 is 2023-11-15 01:00 at UTC+1.
	assert.Equal(t, "01:00", r.Chart.Labels[0])

	require.Len(t, r.Daily, 2)
	assert.Equal(t, models.DailySummary{Date: "2023-11-15", Min: 8, Max: 10}, r.Daily[0])
	assert.Equal(t, "2023-11-16", r.Daily[1].Date)

	insight := Insight(r)
	assert.Contains(t, insight, "15.0°C in Paris with light rain")
	assert.Contains(t, insight, "from 8.0°C to 17.0°C")
	assert.Contains(t, insight, "Humidity is high")
}

func TestClientErrors(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "k", srv.Client())

	_, err := c.Current(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrCityNotFound)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "city not found", apiErr.Message)

	err = c.get(context.Background(), "/nope", "Paris", &struct{}{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTeapot, apiErr.StatusCode)
}

func TestBuildReportWithoutForecast(t *testing.T) {
	cur := &CurrentResponse{Name: "Oslo"}
	cur.Main.Temp = 273.15
	r := BuildReport(cur, nil, UnitsImperial)
	assert.Equal(t, 32.0, r.Current.Temperature)
	assert.Empty(t, r.Daily)
	assert.Equal(t, "It is 32.0°F in Oslo.", Insight(r))
}

package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WeatherService interface {
	Report(ctx context.Context, orgID uuid.UUID, city, units string) (*models.WeatherReport, error)
}

type WeatherHandler struct {
	weather WeatherService
	logger  *zap.Logger
}

func NewWeatherHandler(svc WeatherService, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{weather: svc, logger: nopIfNil(logger).Named("weather_handler")}
}

// HandleGetWeather handles GET /v1/weather?city=&units=metric|imperial.
func (h *WeatherHandler) HandleGetWeather(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if q.Get("city") == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Missing required query parameter: city")
		return
	}

	report, err := h.weather.Report(r.Context(), orgID, q.Get("city"), q.Get("units"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch weather")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, report)
}

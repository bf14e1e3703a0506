package weather

import (
	"fmt"
	"strings"
	"time"

	"promptdesk-backend/internal/models"
)

// chartPoints is one day of 3-hour steps.
const chartPoints = 8

// BuildReport converts raw API replies into a report in the given units.
// Times are shifted to the city's local offset before labelling and
// grouping by day.
func BuildReport(cur *CurrentResponse, fc *ForecastResponse, units string) *models.WeatherReport {
	units = NormalizeUnits(units)
	loc := time.FixedZone("city", cur.Timezone)

	r := &models.WeatherReport{
		City:    cur.Name,
		Country: cur.Sys.Country,
		Units:   units,
		Current: models.WeatherCurrent{
			Temperature: FromKelvin(cur.Main.Temp, units),
			FeelsLike:   FromKelvin(cur.Main.FeelsLike, units),
			Humidity:    cur.Main.Humidity,
			WindSpeed:   Round(cur.Wind.Speed, 1),
			Description: cur.Description(),
			Time:        time.Unix(cur.Dt, 0).In(loc),
		},
		Forecast: []models.ForecastPoint{},
		Chart:    models.WeatherChart{Labels: []string{}, Temperatures: []float64{}, Humidity: []int{}},
		Daily:    []models.DailySummary{},
	}
	if len(cur.Weather) > 0 {
		r.Current.Icon = cur.Weather[0].Icon
	}
	if fc == nil {
		return r
	}
	if fc.City.Timezone != 0 {
		loc = time.FixedZone("city", fc.City.Timezone)
	}

	for i, p := range fc.List {
		at := time.Unix(p.Dt, 0).In(loc)
		temp := FromKelvin(p.Main.Temp, units)
		r.Forecast = append(r.Forecast, models.ForecastPoint{
			Time:        at,
			Temperature: temp,
			Humidity:    p.Main.Humidity,
			Description: p.Description(),
		})
		if i < chartPoints {
			r.Chart.Labels = append(r.Chart.Labels, at.Format("15:04"))
			r.Chart.Temperatures = append(r.Chart.Temperatures, temp)
			r.Chart.Humidity = append(r.Chart.Humidity, p.Main.Humidity)
		}
	}
	r.Daily = DailySummaries(r.Forecast)
	return r
}

// DailySummaries groups forecast points by calendar date, keeping the
// input order of first appearance.
func DailySummaries(points []models.ForecastPoint) []models.DailySummary {
	out := []models.DailySummary{}
	idx := map[string]int{}
	for _, p := range points {
		day := p.Time.Format("2006-01-02")
		i, ok := idx[day]
		if !ok {
			idx[day] = len(out)
			out = append(out, models.DailySummary{Date: day, Min: p.Temperature, Max: p.Temperature})
			continue
		}
		if p.Temperature < out[i].Min {
			out[i].Min = p.Temperature
		}
		if p.Temperature > out[i].Max {
			out[i].Max = p.Temperature
		}
	}
	return out
}

// Insight is the sentence used when no model is available.
func Insight(r *models.WeatherReport) string {
	sym := Symbol(r.Units)
	var b strings.Builder
	fmt.Fprintf(&b, "It is %.1f%s in %s", r.Current.Temperature, sym, r.City)
	if r.Current.Description != "" {
		fmt.Fprintf(&b, " with %s", r.Current.Description)
	}
	b.WriteString(".")
	if len(r.Daily) > 0 {
		lo, hi := r.Daily[0].Min, r.Daily[0].Max
		for _, d := range r.Daily[1:] {
			lo = min(lo, d.Min)
			hi = max(hi, d.Max)
		}
		fmt.Fprintf(&b, " Over the next %d days temperatures range from %.1f%s to %.1f%s.", len(r.Daily), lo, sym, hi, sym)
	}
	if r.Current.Humidity >= 80 {
		b.WriteString(" Humidity is high.")
	}
	return b.String()
}

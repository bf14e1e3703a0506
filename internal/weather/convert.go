package weather

import "math"

// Units accepted by the weather endpoints.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

const absoluteZeroC = 273.15

// KelvinToCelsius converts kelvin to degrees Celsius.
func KelvinToCelsius(k float64) float64 {
	return k - absoluteZeroC
}

// KelvinToFahrenheit converts kelvin to degrees Fahrenheit.
func KelvinToFahrenheit(k float64) float64 {
	return (k-absoluteZeroC)*9/5 + 32
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FromKelvin converts to the requested units and rounds to one decimal.
func FromKelvin(k float64, units string) float64 {
	if units == UnitsImperial {
		return Round(KelvinToFahrenheit(k), 1)
	}
	return Round(KelvinToCelsius(k), 1)
}

// NormalizeUnits maps anything but "imperial" to metric.
func NormalizeUnits(units string) string {
	if units == UnitsImperial {
		return UnitsImperial
	}
	return UnitsMetric
}

// Symbol is the temperature unit suffix for display.
func Symbol(units string) string {
	if units == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// Package openmeteo reports day-part weather for a city from the free
// Open-Meteo geocoding and forecast APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// SourceLabel is the provenance label of live weather answers.
	SourceLabel = "Open-Meteo"
)

// DayParts lists the buckets in display order.
var DayParts = []string{"Morning", "Afternoon", "Evening", "Night"}

// DayWeather is the forecast of one city on one date.
type DayWeather struct {
	City      string `json:"city"`
	Date      string `json:"date"`
	Morning   string `json:"Morning"`
	Afternoon string `json:"Afternoon"`
	Evening   string `json:"Evening"`
	Night     string `json:"Night"`
}

// Part returns the summary of a named day part.
func (d DayWeather) Part(name string) string {
	switch name {
	case "Morning":
		return d.Morning
	case "Afternoon":
		return d.Afternoon
	case "Evening":
		return d.Evening
	case "Night":
		return d.Night
	}
	return ""
}

// CityNotFoundError reports a geocoding miss.
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("City %q not found via Open-Meteo geocoding.", e.City)
}

type Client struct {
	GeocodeURL  string
	ForecastURL string
	HTTP        *http.Client
}

func NewClient() *Client {
	return &Client{
		GeocodeURL:  DefaultGeocodeURL,
		ForecastURL: DefaultForecastURL,
		HTTP:        &http.Client{Timeout: 15 * time.Second},
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Hourly struct {
		Time   []string   `json:"time"`
		Temp   []*float64 `json:"temperature_2m"`
		Precip []*float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

// DayWeather geocodes city and buckets the hourly forecast for date
// (YYYY-MM-DD) into day parts.
func (c *Client) DayWeather(ctx context.Context, city, date string) (DayWeather, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var geo geocodeResponse
	if err := c.getJSON(ctx, c.GeocodeURL+"?"+q.Encode(), &geo); err != nil {
		return DayWeather{}, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(geo.Results) == 0 {
		return DayWeather{}, &CityNotFoundError{City: city}
	}
	place := geo.Results[0]

	q = url.Values{}
	q.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	q.Set("hourly", "temperature_2m,precipitation_probability")
	q.Set("timezone", "auto")
	q.Set("start_date", date)
	q.Set("end_date", date)

	var forecast forecastResponse
	if err := c.getJSON(ctx, c.ForecastURL+"?"+q.Encode(), &forecast); err != nil {
		return DayWeather{}, fmt.Errorf("forecast failed: %w", err)
	}

	parts := Bucket(forecast.Hourly.Time, forecast.Hourly.Temp, forecast.Hourly.Precip)
	return DayWeather{
		City:      place.Name,
		Date:      date,
		Morning:   parts["Morning"],
		Afternoon: parts["Afternoon"],
		Evening:   parts["Evening"],
		Night:     parts["Night"],
	}, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PartOf maps an hour of day to its bucket: Morning 06-11, Afternoon 12-16,
// Evening 17-20, Night otherwise.
func PartOf(hour int) string {
	switch {
	case hour >= 6 && hour <= 11:
		return "Morning"
	case hour >= 12 && hour <= 16:
		return "Afternoon"
	case hour >= 17 && hour <= 20:
		return "Evening"
	default:
		return "Night"
	}
}

// Bucket averages temperature and takes the maximum rain probability per
// day part. Hours are local ISO timestamps without offset, as returned with
// timezone=auto. Missing readings count as absent.
func Bucket(hours []string, temps, rain []*float64) map[string]string {
	type acc struct {
		sum     float64
		rainMax float64
		count   int
	}
	buckets := make(map[string]*acc, len(DayParts))
	for _, p := range DayParts {
		buckets[p] = &acc{}
	}

	for i, stamp := range hours {
		t, err := time.Parse("2006-01-02T15:04", stamp)
		if err != nil || i >= len(temps) || temps[i] == nil {
			continue
		}
		b := buckets[PartOf(t.Hour())]
		b.sum += *temps[i]
		b.count++
		if i < len(rain) && rain[i] != nil {
			b.rainMax = math.Max(b.rainMax, *rain[i])
		}
	}

	out := make(map[string]string, len(DayParts))
	for _, p := range DayParts {
		b := buckets[p]
		if b.count == 0 {
			out[p] = "No data"
			continue
		}
		out[p] = fmt.Sprintf("%.1f°C • Rain %s%%", b.sum/float64(b.count), strconv.FormatFloat(b.rainMax, 'f', -1, 64))
	}
	return out
}

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/rainlog/internal/rainfall"
)

// WeatherAPIProvider reads daily precipitation totals from the WeatherAPI.com history endpoint.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/history.json",
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff},
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchDaily(ctx context.Context, loc rainfall.Location, day rainfall.Date) (rainfall.ProviderReading, error) {
	if p.apiKey == "" {
		return rainfall.ProviderReading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI takes "lat,lon" in q.
	values.Set("q", fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude))
	values.Set("dt", day.String())

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					TotalPrecipMm float64 `json:"totalprecip_mm"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return rainfall.ProviderReading{}, err
	}

	for _, fd := range payload.Forecast.ForecastDay {
		if fd.Date != day.String() {
			continue
		}
		return rainfall.ProviderReading{
			ProviderName: p.name,
			Date:         day,
			PrecipMm:     fd.Day.TotalPrecipMm,
			FetchedAt:    time.Now().UTC(),
		}, nil
	}
	return rainfall.ProviderReading{}, fmt.Errorf("%s: %w %s", p.name, errNoData, day)
}

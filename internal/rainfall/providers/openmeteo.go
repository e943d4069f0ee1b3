package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/rainlog/internal/rainfall"
)

// OpenMeteoProvider reads daily precipitation sums from Open-Meteo. No API key is needed.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff},
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, loc rainfall.Location, day rainfall.Date) (rainfall.ProviderReading, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	values.Set("daily", "precipitation_sum")
	values.Set("timezone", "UTC")
	values.Set("start_date", day.String())
	values.Set("end_date", day.String())

	var payload struct {
		Daily struct {
			Time             []string   `json:"time"`
			PrecipitationSum []*float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return rainfall.ProviderReading{}, err
	}

	for i, ts := range payload.Daily.Time {
		if ts != day.String() || i >= len(payload.Daily.PrecipitationSum) {
			continue
		}
		sum := payload.Daily.PrecipitationSum[i]
		if sum == nil {
			break
		}
		return rainfall.ProviderReading{
			ProviderName: p.name,
			Date:         day,
			PrecipMm:     *sum,
			FetchedAt:    time.Now().UTC(),
		}, nil
	}
	return rainfall.ProviderReading{}, fmt.Errorf("%s: %w %s", p.name, errNoData, day)
}

package rainfall

import (
	"context"
	"strconv"
	"time"
)

// Location is the point an upstream provider reports precipitation for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns a canonical string key for logging.
func (l Location) Key() string {
	return formatCoord(l.Latitude) + "," + formatCoord(l.Longitude)
}

// ProviderReading is one provider's total precipitation for a single day.
type ProviderReading struct {
	ProviderName string
	Date         Date
	PrecipMm     float64
	FetchedAt    time.Time
}

// Provider abstracts an upstream daily precipitation source (e.g. Open-Meteo, WeatherAPI).
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, loc Location, day Date) (ProviderReading, error)
}

// Store is the contract the in-memory and sqlite record stores satisfy.
type Store interface {
	Insert(ctx context.Context, r Record) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

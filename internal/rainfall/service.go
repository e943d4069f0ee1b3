package rainfall

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/rainlog/internal/metrics"
)

// Service validates and stores records, and computes aggregates over the store.
type Service struct {
	store     Store
	providers []Provider
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService creates a new Service. logger and m may be nil.
func NewService(store Store, providers []Provider, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		providers: providers,
		logger:    logger.Named("rainfall"),
		metrics:   m,
		now:       time.Now,
	}
}

// AddRecord validates the input, assigns a fresh id and stores the record.
func (s *Service) AddRecord(ctx context.Context, in NewRecord) (Record, error) {
	if err := in.Validate(); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:     uuid.NewString(),
		Date:   in.Date,
		Amount: in.Amount,
	}

	saved, err := s.store.Insert(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrDuplicateDate) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	s.logger.Info("rainfall recorded",
		zap.String("id", saved.ID),
		zap.Stringer("date", saved.Date),
		zap.Stringer("amount_mm", saved.Amount),
	)
	s.metrics.RecordCreated(saved.Amount.Float64())
	return saved, nil
}

// ListRecords returns every stored record, newest date first.
func (s *Service) ListRecords(ctx context.Context) ([]Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date.Time) {
			return records[i].Date.After(records[j].Date.Time)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// MonthlyTotals aggregates the whole store by calendar month.
func (s *Service) MonthlyTotals(ctx context.Context) ([]MonthlyTotal, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return MonthlyTotals(records), nil
}

// YearlyTotals aggregates the whole store by calendar year.
func (s *Service) YearlyTotals(ctx context.Context) ([]YearlyTotal, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return YearlyTotals(records), nil
}

// YearSeries returns the twelve monthly buckets of the given year.
func (s *Service) YearSeries(ctx context.Context, year int) (YearSeries, error) {
	totals, err := s.MonthlyTotals(ctx)
	if err != nil {
		return YearSeries{}, err
	}
	return BuildYearSeries(totals, year), nil
}

// CurrentMonthTotal returns the running total of the current calendar month
// (UTC). A month without records yields a zero total.
func (s *Service) CurrentMonthTotal(ctx context.Context) (MonthlyTotal, error) {
	now := s.now().UTC()
	year, month := now.Year(), int(now.Month())-1

	totals, err := s.MonthlyTotals(ctx)
	if err != nil {
		return MonthlyTotal{}, err
	}
	for _, t := range totals {
		if t.Year == year && t.Month == month {
			return t, nil
		}
	}
	return MonthlyTotal{Year: year, Month: month, Label: MonthLabel(year, month)}, nil
}

// ImportDaily fetches the precipitation for day from all providers
// concurrently, averages the successful readings and stores one record.
// No record is written when every provider fails, or when the store already
// holds the day and does not accept duplicates.
func (s *Service) ImportDaily(ctx context.Context, loc Location, day Date) error {
	if len(s.providers) == 0 {
		return fmt.Errorf("no rainfall providers configured")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			r, err := p.FetchDaily(ctx, loc, day)
			if err != nil {
				// partial success is fine
				s.logger.Warn("provider fetch failed",
					zap.String("provider", p.Name()),
					zap.String("location", loc.Key()),
					zap.Stringer("date", day),
					zap.Error(err),
				)
				s.metrics.ProviderFetch(p.Name(), false)
				return
			}
			s.metrics.ProviderFetch(p.Name(), true)

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	if len(readings) == 0 {
		s.logger.Warn("no successful provider readings; nothing imported",
			zap.String("location", loc.Key()),
			zap.Stringer("date", day),
		)
		return nil
	}

	amount := AverageReadings(readings)
	_, err := s.AddRecord(ctx, NewRecord{Date: day, Amount: amount})
	if errors.Is(err, ErrDuplicateDate) {
		s.logger.Info("day already recorded; skipping import", zap.Stringer("date", day))
		return nil
	}
	return err
}

// AverageReadings averages provider readings into one amount rounded to 0.1 mm.
// Negative readings, which some providers use as "no data", count as zero.
func AverageReadings(readings []ProviderReading) Amount {
	if len(readings) == 0 {
		return Amount{}
	}
	var sum Amount
	for _, r := range readings {
		if r.PrecipMm > 0 {
			sum = sum.Add(AmountFromFloat(r.PrecipMm))
		}
	}
	avg := sum.Decimal().Div(AmountFromFloat(float64(len(readings))).Decimal())
	return NewAmount(avg).Round(1)
}

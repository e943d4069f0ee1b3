package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/rainlog/internal/rainfall"
)

// Service is the part of rainfall.Service the scheduled jobs use.
type Service interface {
	ImportDaily(ctx context.Context, loc rainfall.Location, day rainfall.Date) error
	CurrentMonthTotal(ctx context.Context) (rainfall.MonthlyTotal, error)
}

// Config selects which jobs run.
type Config struct {
	ImportEnabled  bool
	ImportAt       string // HH:MM, UTC
	Location       rainfall.Location
	DigestInterval time.Duration // 0 disables the digest
}

// Scheduler runs the daily provider import and the periodic monthly digest.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Service
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a new Scheduler.
func New(cfg Config, service Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cfg:       cfg,
		logger:    logger.Named("scheduler"),
		now:       time.Now,
	}
}

// Start registers the configured jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.cfg.ImportEnabled {
		_, err := s.scheduler.Every(1).Day().At(s.cfg.ImportAt).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			s.RunImport(ctx)
		})
		if err != nil {
			return err
		}
		s.logger.Info("daily import scheduled",
			zap.String("at_utc", s.cfg.ImportAt),
			zap.String("location", s.cfg.Location.Key()),
		)
	}

	if s.cfg.DigestInterval > 0 {
		_, err := s.scheduler.Every(s.cfg.DigestInterval).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.RunDigest(ctx)
		})
		if err != nil {
			return err
		}
	}

	if s.scheduler.Len() == 0 {
		s.logger.Info("no jobs configured; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	return nil
}

// RunImport imports yesterday's (UTC) precipitation.
func (s *Scheduler) RunImport(ctx context.Context) {
	y := s.now().UTC().AddDate(0, 0, -1)
	day := rainfall.NewDate(y.Year(), y.Month(), y.Day())

	s.logger.Info("running daily import", zap.Stringer("date", day))
	if err := s.service.ImportDaily(ctx, s.cfg.Location, day); err != nil {
		s.logger.Error("daily import failed", zap.Stringer("date", day), zap.Error(err))
		return
	}
	s.logger.Info("completed daily import", zap.Stringer("date", day))
}

// RunDigest logs the running total of the current month.
func (s *Scheduler) RunDigest(ctx context.Context) {
	total, err := s.service.CurrentMonthTotal(ctx)
	if err != nil {
		s.logger.Error("monthly digest failed", zap.Error(err))
		return
	}
	s.logger.Info("monthly digest",
		zap.String("month", total.Label),
		zap.Stringer("total_mm", total.Total),
	)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

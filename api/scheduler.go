/*
scheduler.go - Automated holiday calendar maintenance

PURPOSE:
  Periodically checks that the holiday calendar covers the current and
  upcoming year and seeds the default set when it doesn't. Without this,
  a deployment that crosses a year boundary silently stops excluding
  holidays because nobody loaded next year's calendar.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - A year counts as covered when it has at least one holiday on record;
    a manually curated calendar is never overwritten
  - Respects an existing date: seeding skips dates already registered

CONFIGURATION:
  - CheckInterval: How often to check (default: 24 hours)
  - Horizon: How many days before Jan 1 next year is seeded (default: 60)

USAGE:
  scheduler := NewHolidayScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - leave/holiday.go: DefaultUSHolidays
  - handlers.go: AddDefaultHolidays (manual seeding endpoint)
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/loomhr/leave-engine/leave"
)

// HolidayScheduler keeps the holiday calendar seeded across year
// boundaries.
type HolidayScheduler struct {
	Holidays      leave.HolidayStore
	Logger        *slog.Logger
	CheckInterval time.Duration
	Horizon       int // days before year end to seed the next year

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewHolidayScheduler(holidays leave.HolidayStore, logger *slog.Logger) *HolidayScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HolidayScheduler{
		Holidays:      holidays,
		Logger:        logger,
		CheckInterval: 24 * time.Hour,
		Horizon:       60,
	}
}

// Start launches the background check loop. Safe to call once.
func (s *HolidayScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Check once at startup, then on the ticker.
		s.RunOnce(context.Background())
		for {
			select {
			case <-s.ticker.C:
				s.RunOnce(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
	s.Logger.Info("holiday scheduler started",
		slog.Duration("check_interval", s.CheckInterval))
}

// Stop halts the loop and waits for the current check to finish.
func (s *HolidayScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("holiday scheduler stopped")
}

// RunOnce performs one coverage check. Exposed so the server can seed on
// boot and tests can drive the scheduler without the ticker.
func (s *HolidayScheduler) RunOnce(ctx context.Context) {
	now := time.Now()
	years := []int{now.Year()}
	if now.AddDate(0, 0, s.Horizon).Year() > now.Year() {
		years = append(years, now.Year()+1)
	}

	for _, year := range years {
		covered, err := s.yearCovered(ctx, year)
		if err != nil {
			s.Logger.Error("holiday coverage check failed",
				slog.Int("year", year), slog.String("error", err.Error()))
			continue
		}
		if covered {
			continue
		}
		added, err := s.seedYear(ctx, year)
		if err != nil {
			s.Logger.Error("holiday seeding failed",
				slog.Int("year", year), slog.String("error", err.Error()))
			continue
		}
		s.Logger.Info("seeded default holidays",
			slog.Int("year", year), slog.Int("added", added))
	}
}

// yearCovered reports whether any holiday exists in the year.
func (s *HolidayScheduler) yearCovered(ctx context.Context, year int) (bool, error) {
	holidays, err := s.Holidays.ListHolidays(ctx)
	if err != nil {
		return false, err
	}
	for _, h := range holidays {
		if h.Date.Year() == year {
			return true, nil
		}
	}
	return false, nil
}

// seedYear adds the default set, skipping dates already registered.
func (s *HolidayScheduler) seedYear(ctx context.Context, year int) (int, error) {
	added := 0
	for _, holiday := range leave.DefaultUSHolidays(year) {
		if err := s.Holidays.AddHoliday(ctx, holiday); err != nil {
			if errors.Is(err, leave.ErrDuplicateHoliday) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yooncheol/pricewatch/internal/usecase"
	"go.uber.org/zap"
)

// Scheduler drives the monitoring passes on wall-clock time: one pass every
// interval while the market session is open, plus one trailing pass in the
// interval right after close. Retention cleanup runs on its own, much slower,
// ticker. Each invocation runs to completion before the next tick is
// considered.
type Scheduler struct {
	monitor         *usecase.Monitor
	cleanup         *usecase.CleanupUsecase
	interval        time.Duration
	cleanupInterval time.Duration
	openMinute      int
	closeMinute     int
	location        *time.Location
	logger          *zap.Logger
}

func New(monitor *usecase.Monitor, cleanup *usecase.CleanupUsecase, interval, cleanupInterval time.Duration, sessionOpen, sessionClose, timezone string, logger *zap.Logger) (*Scheduler, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	openMinute, err := parseClock(sessionOpen)
	if err != nil {
		return nil, fmt.Errorf("parse session open: %w", err)
	}
	closeMinute, err := parseClock(sessionClose)
	if err != nil {
		return nil, fmt.Errorf("parse session close: %w", err)
	}
	if closeMinute <= openMinute {
		return nil, fmt.Errorf("session close %s is not after open %s", sessionClose, sessionOpen)
	}

	return &Scheduler{
		monitor:         monitor,
		cleanup:         cleanup,
		interval:        interval,
		cleanupInterval: cleanupInterval,
		openMinute:      openMinute,
		closeMinute:     closeMinute,
		location:        location,
		logger:          logger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	monitorTicker := time.NewTicker(s.interval)
	defer monitorTicker.Stop()
	cleanupTicker := time.NewTicker(s.cleanupInterval)
	defer cleanupTicker.Stop()

	s.logger.Info("scheduler started",
		zap.Duration("interval", s.interval),
		zap.String("timezone", s.location.String()))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case now := <-monitorTicker.C:
			if !s.shouldRun(now) {
				continue
			}
			if _, err := s.monitor.RunOnce(ctx); err != nil {
				s.logger.Error("scheduled monitoring pass failed", zap.Error(err))
			}
		case <-cleanupTicker.C:
			s.cleanup.Run(ctx)
		}
	}
}

// shouldRun reports whether a tick falls inside the session window. The
// window extends one interval past close so the after-close prices get a
// final pass.
func (s *Scheduler) shouldRun(now time.Time) bool {
	local := now.In(s.location)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= s.openMinute && minute <= s.closeMinute+int(s.interval.Minutes())
}

func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("bad hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("bad minute in %q", value)
	}
	return hour*60 + minute, nil
}

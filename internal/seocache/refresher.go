package seocache

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher pre-warms the snapshot cache on a cron schedule so that
// requests rarely pay the fetch latency. It is optional; without it the
// cache still refreshes lazily on TTL expiry.
type Refresher struct {
	cron   *cron.Cron
	cache  *Cache
	logger *slog.Logger
}

// NewRefresher schedules ForceRefresh on the given cron expression
// (e.g. "*/5 * * * *").
func NewRefresher(cache *Cache, schedule string, logger *slog.Logger) (*Refresher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refresher{cron: cron.New(), cache: cache, logger: logger}

	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := cache.ForceRefresh(ctx); err != nil {
			logger.Warn("scheduled snapshot refresh failed", "error", err)
			return
		}
		logger.Info("snapshot refreshed on schedule")
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the schedule.
func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("snapshot refresher started")
}

// Stop halts the schedule.
func (r *Refresher) Stop() {
	r.cron.Stop()
	r.logger.Info("snapshot refresher stopped")
}

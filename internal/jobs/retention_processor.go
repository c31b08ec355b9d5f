package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"OurFloWorks/internal/config"
	"OurFloWorks/internal/logger"
	"OurFloWorks/internal/store"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls the nightly purge of old reconciliation runs.
type RetentionConfig struct {
	Schedule      string
	TimeZone      string
	RetentionDays int
}

func NewDefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		Schedule:      config.DefaultRetentionSchedule,
		TimeZone:      config.DefaultTimeZone,
		RetentionDays: config.DefaultRetentionDays,
	}
}

// RunRetentionScheduler registers the purge job and starts the cron
// loop. The purge itself is one DELETE; region lines follow through the
// foreign-key cascade.
func RunRetentionScheduler(cfg *RetentionConfig, st *store.Store) error {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.TimeZone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		purged, err := st.PurgeOlderThan(ctx, cfg.RetentionDays)
		if err != nil {
			log.Printf("[RETENTION] purge failed: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("[RETENTION] purged %d runs older than %d days", purged, cfg.RetentionDays)
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Retention purge removed %d reconciliation runs", purged))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}

	c.Start()
	log.Printf("[RETENTION] scheduled %q in %s, keeping %d days of runs", cfg.Schedule, cfg.TimeZone, cfg.RetentionDays)
	return nil
}

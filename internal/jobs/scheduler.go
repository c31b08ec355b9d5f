package jobs

import (
	"fmt"
	"log"

	"OurFloWorks/internal/logger"
	"OurFloWorks/internal/serviceiface"
	"OurFloWorks/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	if s.db == nil {
		log.Println("Cron service idle: no database configured, nothing to purge")
		return nil
	}

	retention := NewDefaultRetentionConfig()
	if s.config != nil {
		if schedule, ok := s.config["retention_schedule"].(string); ok && schedule != "" {
			retention.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			retention.TimeZone = tz
		}
		if days, ok := s.config["retention_days"].(int); ok && days > 0 {
			retention.RetentionDays = days
		}
	}

	if err := RunRetentionScheduler(retention, store.New(s.db)); err != nil {
		return fmt.Errorf("failed to start retention scheduler: %v", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Cron service started with run-history retention")
	}
	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped")
	return nil
}

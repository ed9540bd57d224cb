package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spendtrack/spendtrack-be/internal/services"
)

// Scheduler runs database backups on a cron schedule.
type Scheduler struct {
	backupSvc services.BackupServiceProvider
	schedule  cron.Schedule
	ticker    *time.Ticker
	done      chan bool
	nextRun   time.Time
}

// NewScheduler creates a scheduler from a standard 5-field cron expression.
func NewScheduler(backupSvc services.BackupServiceProvider, cronExpression string) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cronExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", cronExpression, err)
	}
	return &Scheduler{
		backupSvc: backupSvc,
		schedule:  schedule,
		done:      make(chan bool),
	}, nil
}

// Run starts the scheduler's ticking loop. It blocks until Stop is called.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting backup scheduler")
	s.nextRun = s.schedule.Next(time.Now())
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping backup scheduler")
			return
		case now := <-s.ticker.C:
			if now.After(s.nextRun) {
				s.nextRun = s.schedule.Next(now)
				go s.runBackup()
			}
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.done <- true
}

func (s *Scheduler) runBackup() {
	if _, err := s.backupSvc.CreateBackup(); err != nil {
		log.Error().Err(err).Msg("Scheduled backup failed")
	}
}

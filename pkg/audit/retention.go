package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger deletes access records past their retention window on a cron
// schedule.
type Purger struct {
	store         *Store
	retentionDays int
	logger        *slog.Logger
	cron          *cron.Cron
}

// NewPurger schedules a purge of records older than retentionDays at the
// times given by the cron expression schedule.
func NewPurger(store *Store, retentionDays int, schedule string, logger *slog.Logger) (*Purger, error) {
	p := &Purger{
		store:         store,
		retentionDays: retentionDays,
		logger:        logger,
		cron:          cron.New(),
	}

	if _, err := p.cron.AddFunc(schedule, p.purge); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}

	return p, nil
}

// Start begins running the schedule.
func (p *Purger) Start() {
	p.cron.Start()
}

// Stop stops the schedule and waits for a running purge to finish.
func (p *Purger) Stop() {
	<-p.cron.Stop().Done()
}

func (p *Purger) purge() {
	cutoff := time.Now().AddDate(0, 0, -p.retentionDays)

	deleted, err := p.store.PurgeOlderThan(context.Background(), cutoff)
	if err != nil {
		p.logger.Error("audit retention purge failed", "error", err)
		return
	}

	p.logger.Info("audit retention purge complete",
		"deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339),
	)
}

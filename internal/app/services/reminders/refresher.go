// Package reminders periodically re-evaluates the family pending-action
// rules so renewal windows and threshold crossings are noticed without a
// user interaction.
package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/medfin/platform/internal/app/domain/family"
	"github.com/medfin/platform/internal/app/metrics"
	familysvc "github.com/medfin/platform/internal/app/services/family"
	"github.com/medfin/platform/internal/app/system"
	"github.com/medfin/platform/pkg/logger"
)

var _ system.Service = (*Refresher)(nil)

// DefaultSchedule runs the scan once a day.
const DefaultSchedule = "@daily"

// Refresher is a lifecycle-managed scanner over the family store.
type Refresher struct {
	store    *familysvc.Service
	log      *logger.Logger
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewRefresher creates a scanner with the given cron schedule; an empty
// schedule uses DefaultSchedule.
func NewRefresher(store *familysvc.Service, schedule string, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("reminders")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Refresher{store: store, log: log, schedule: schedule}
}

func (r *Refresher) Name() string { return "reminder-scanner" }

// Start schedules the periodic scan and runs one immediately so the gauge is
// populated at boot.
func (r *Refresher) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.scan); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.running = true

	r.scan()
	r.log.WithField("schedule", r.schedule).Info("reminder scanner started")
	return nil
}

// Stop halts the schedule, waiting for a running scan to finish or the
// context to expire.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	done := r.cron.Stop().Done()
	r.running = false

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.log.Info("reminder scanner stopped")
	return nil
}

func (r *Refresher) scan() {
	actions := r.store.PendingActions(time.Now())
	metrics.SetPendingActions(len(actions))

	high := 0
	for _, a := range actions {
		if a.Priority == family.PriorityHigh {
			high++
		}
	}
	r.log.WithField("pending", len(actions)).
		WithField("high_priority", high).
		Debug("reminder scan complete")
}

package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Souleye05/legal-agenda-sub000/internal/audit"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/repo"
	"github.com/Souleye05/legal-agenda-sub000/internal/schedule"
)

// SweepReport summarizes one daily sweep run.
type SweepReport struct {
	Flagged       int      `json:"flagged"`
	AlertsCreated int      `json:"alerts_created"`
	Sent          int      `json:"sent"`
	Errors        []string `json:"errors,omitempty"`
}

// RunDailySweep flags every upcoming hearing whose date has passed with no
// result, ensures each has an open alert, then flushes pending alerts once
// for the whole batch. Per-hearing failures are isolated; rerunning the
// sweep on an unchanged dataset is a no-op.
func (e Engine) RunDailySweep(ctx context.Context, actorID string) (SweepReport, error) {
	var report SweepReport
	today := e.today().Format(schedule.DateLayout)
	lapsed, err := e.Repo.ListHearings(ctx, repo.HearingFilters{
		Status:     domain.HearingUpcoming,
		DateBefore: today,
		NoResult:   true,
	})
	if err != nil {
		return report, fmt.Errorf("list lapsed hearings: %w", err)
	}
	for _, h := range lapsed {
		flagged, err := e.flagUnreported(ctx, h, actorID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("hearing %s: %v", h.ID, err))
			continue
		}
		if flagged {
			report.Flagged++
		}
		created, err := e.EnsureAlert(ctx, h.ID, actorID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("alert for hearing %s: %v", h.ID, err))
			continue
		}
		if created {
			report.AlertsCreated++
		}
	}
	sent, err := e.FlushPending(ctx, actorID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("flush: %v", err))
	}
	report.Sent = sent
	return report, nil
}

// flagUnreported transitions one hearing to unreported. The guarded update
// loses to a concurrently recorded result, in which case nothing changes.
func (e Engine) flagUnreported(ctx context.Context, h domain.Hearing, actorID string) (bool, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	updatedAt := e.nowString()
	changed, err := e.Repo.MarkHearingUnreported(ctx, tx, h.ID, updatedAt)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	after := h
	after.Status = domain.HearingUnreported
	after.UpdatedAt = updatedAt
	if err := e.Audit.Append(ctx, tx, "hearing", h.ID, audit.ActionUpdate, actorID, h, after); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// CountLapsed is the read-only hourly health check: how many hearings the
// next daily sweep would flag.
func (e Engine) CountLapsed(ctx context.Context) (int, error) {
	return e.Repo.CountLapsedHearings(ctx, e.today().Format(schedule.DateLayout))
}

const sweepActor = "sweeper"

// Sweeper fires the daily sweep at the configured hour plus an hourly
// lapsed-hearing count when enabled. Overlapping triggers are skipped: a run
// that is still in flight keeps the lock and later ticks bail out.
type Sweeper struct {
	engine Engine
	mu     sync.Mutex
}

// StartSweeper launches the background schedule loop.
func StartSweeper(e Engine) *Sweeper {
	s := &Sweeper{engine: e}
	go s.run()
	return s
}

func (s *Sweeper) run() {
	hourly := time.NewTicker(time.Hour)
	defer hourly.Stop()
	for {
		daily := time.NewTimer(time.Until(s.nextDaily()))
		select {
		case <-daily.C:
			s.RunOnce()
		case <-hourly.C:
			daily.Stop()
			if s.engine.Config.Sweep.HealthCheck {
				s.healthCheck()
			}
		}
	}
}

func (s *Sweeper) nextDaily() time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.engine.Config.Sweep.Hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce executes one serialized sweep. Returns false when a previous run
// still held the lock and this trigger was skipped.
func (s *Sweeper) RunOnce() bool {
	if !s.mu.TryLock() {
		log.Printf("sweep: previous run still in progress, skipping trigger")
		return false
	}
	defer s.mu.Unlock()
	report, err := s.engine.RunDailySweep(context.Background(), sweepActor)
	if err != nil {
		log.Printf("sweep: %v", err)
		return true
	}
	log.Printf("sweep: flagged=%d alerts=%d sent=%d errors=%d",
		report.Flagged, report.AlertsCreated, report.Sent, len(report.Errors))
	for _, msg := range report.Errors {
		log.Printf("sweep: %s", msg)
	}
	return true
}

func (s *Sweeper) healthCheck() {
	n, err := s.engine.CountLapsed(context.Background())
	if err != nil {
		log.Printf("sweep: health check: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweep: health check: %d lapsed hearings awaiting the daily run", n)
	}
}

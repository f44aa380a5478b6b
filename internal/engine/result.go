package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Souleye05/legal-agenda-sub000/internal/audit"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/schedule"
)

// ResultOptions are parameters for recording a hearing outcome.
type ResultOptions struct {
	HearingID string
	Kind      string
	// Renvoi payload.
	NewDate string
	Reason  string
	// Delibere payload.
	Decision string
	// Appeal window opt-in for delibere outcomes.
	AppealOptIn    bool
	AppealDeadline string
	AppealNotes    string
	ActorID        string
}

// RecordResult records the outcome of a hearing. The result insert and the
// status change to held are atomic; the cascade side effects that follow
// (follow-up hearing, case closing, appeal reminder, alert resolution) are
// best-effort and never roll back the recorded outcome.
func (e Engine) RecordResult(ctx context.Context, opts ResultOptions) (domain.Hearing, domain.Result, error) {
	if err := e.validateResult(opts); err != nil {
		return domain.Hearing{}, domain.Result{}, err
	}
	h, err := e.Repo.GetHearing(ctx, opts.HearingID)
	if err != nil {
		return domain.Hearing{}, domain.Result{}, fmt.Errorf("hearing %s: %w", opts.HearingID, err)
	}
	if h.ResultID != nil {
		return h, domain.Result{}, fmt.Errorf("hearing %s already has a result: %w", h.ID, ErrConflict)
	}

	res := domain.Result{
		ID:        uuid.New().String(),
		HearingID: h.ID,
		Kind:      opts.Kind,
		NewDate:   optionalString(opts.NewDate),
		Reason:    opts.Reason,
		Decision:  opts.Decision,
		CreatedAt: e.nowString(),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return h, domain.Result{}, err
	}
	defer tx.Rollback()

	// Re-read inside the transaction so a concurrent recording loses cleanly.
	before, err := e.Repo.GetHearingTx(ctx, tx, h.ID)
	if err != nil {
		return h, domain.Result{}, err
	}
	if before.ResultID != nil {
		return before, domain.Result{}, fmt.Errorf("hearing %s already has a result: %w", h.ID, ErrConflict)
	}
	if err := e.Repo.InsertResult(ctx, tx, res); err != nil {
		return before, domain.Result{}, fmt.Errorf("insert result: %w", err)
	}
	after := before
	after.Status = domain.HearingHeld
	after.ResultID = &res.ID
	after.UpdatedAt = e.nowString()
	if err := e.Repo.UpdateHearing(ctx, tx, after); err != nil {
		return before, domain.Result{}, fmt.Errorf("update hearing: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "result", res.ID, audit.ActionCreate, opts.ActorID, nil, res); err != nil {
		return before, domain.Result{}, err
	}
	if err := e.Audit.Append(ctx, tx, "hearing", h.ID, audit.ActionUpdate, opts.ActorID, before, after); err != nil {
		return before, domain.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return before, domain.Result{}, err
	}

	e.cascade(ctx, after, res, opts)
	return after, res, nil
}

// validateResult rejects malformed payloads before anything is written.
func (e Engine) validateResult(opts ResultOptions) error {
	switch opts.Kind {
	case domain.ResultRenvoi:
		if opts.Reason == "" {
			return validationf("renvoi requires a reason")
		}
		if opts.NewDate != "" {
			if _, err := parseDate(opts.NewDate, "new_date"); err != nil {
				return err
			}
		}
	case domain.ResultRadiation:
		if opts.Reason == "" {
			return validationf("radiation requires a reason")
		}
	case domain.ResultDelibere:
		if opts.Decision == "" {
			return validationf("delibere requires a decision text")
		}
		if opts.AppealDeadline != "" {
			if _, err := parseDate(opts.AppealDeadline, "appeal_deadline"); err != nil {
				return err
			}
		}
	default:
		return validationf("unknown result kind %q", opts.Kind)
	}
	return nil
}

// cascade applies the side effects of a recorded outcome. Each branch is
// independent; alert resolution runs last so a failed case mutation cannot
// suppress it. Failures are logged, never propagated: the recorded outcome
// is the primary legal fact and must survive.
func (e Engine) cascade(ctx context.Context, h domain.Hearing, res domain.Result, opts ResultOptions) {
	switch res.Kind {
	case domain.ResultRenvoi:
		if res.NewDate != nil {
			if _, err := e.spawnFollowUp(ctx, h, res, opts.ActorID); err != nil {
				log.Printf("cascade: follow-up hearing for %s: %v", h.ID, err)
			}
		}
	case domain.ResultRadiation:
		if err := e.settleCase(ctx, h.CaseID, domain.CaseRadiated, opts.ActorID); err != nil {
			log.Printf("cascade: radiate case %s: %v", h.CaseID, err)
		}
	case domain.ResultDelibere:
		if err := e.settleCase(ctx, h.CaseID, domain.CaseClosed, opts.ActorID); err != nil {
			log.Printf("cascade: close case %s: %v", h.CaseID, err)
		}
		if opts.AppealOptIn {
			if _, err := e.createAppealFromResult(ctx, h, res, opts); err != nil {
				log.Printf("cascade: appeal reminder for case %s: %v", h.CaseID, err)
			}
		}
	}
	if err := e.ResolveAlerts(ctx, h.ID, opts.ActorID); err != nil {
		log.Printf("cascade: resolve alerts for hearing %s: %v", h.ID, err)
	}
}

// spawnFollowUp creates the renvoi replacement hearing: same case, type,
// court and time-of-day, prep notes pointing back at the adjourned sitting.
func (e Engine) spawnFollowUp(ctx context.Context, h domain.Hearing, res domain.Result, actorID string) (domain.Hearing, error) {
	opts := HearingCreateOptions{
		CaseID:         h.CaseID,
		Date:           *res.NewDate,
		Type:           h.Type,
		Court:          h.Court,
		EnrollRequired: h.EnrollRequired,
		PrepNotes:      fmt.Sprintf("Adjourned from hearing of %s: %s", h.Date, res.Reason),
		ActorID:        actorID,
	}
	if h.Time != nil {
		opts.Time = *h.Time
	}
	return e.CreateHearing(ctx, opts)
}

// settleCase moves an active case to closed or radiated. Cases already out
// of the active state are left untouched: the transition is one-directional
// and idempotent.
func (e Engine) settleCase(ctx context.Context, caseID, status, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	before, err := e.Repo.GetCaseTx(ctx, tx, caseID)
	if err != nil {
		return err
	}
	if before.Status != domain.CaseActive {
		return nil
	}
	after := before
	after.Status = status
	after.UpdatedAt = e.nowString()
	if err := e.Repo.UpdateCaseStatus(ctx, tx, caseID, status, after.UpdatedAt); err != nil {
		return err
	}
	if err := e.Audit.Append(ctx, tx, "case", caseID, audit.ActionUpdate, actorID, before, after); err != nil {
		return err
	}
	return tx.Commit()
}

// createAppealFromResult opens the appeal window after a deliberation. The
// deadline defaults to the configured window counted from the deliberation
// date when the caller did not supply one.
func (e Engine) createAppealFromResult(ctx context.Context, h domain.Hearing, res domain.Result, opts ResultOptions) (domain.AppealReminder, error) {
	deadline := opts.AppealDeadline
	if deadline == "" {
		deliberated, err := time.Parse(time.RFC3339, res.CreatedAt)
		if err != nil {
			deliberated = e.now().UTC()
		}
		deadline = schedule.AppealDeadline(deliberated, e.Config.Deadlines.AppealWindowDays).Format(schedule.DateLayout)
	}
	return e.CreateAppealReminder(ctx, ReminderCreateOptions{
		CaseID:   h.CaseID,
		Deadline: deadline,
		Notes:    opts.AppealNotes,
		ResultID: res.ID,
		ActorID:  opts.ActorID,
	})
}

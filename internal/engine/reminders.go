package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Souleye05/legal-agenda-sub000/internal/audit"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/schedule"
)

// ReminderCreateOptions are parameters for opening an appeal window.
type ReminderCreateOptions struct {
	CaseID   string
	Deadline string
	Notes    string
	ResultID string
	ActorID  string
}

// CreateAppealReminder tracks a post-deliberation appeal deadline. When no
// deadline is supplied it defaults to the configured window counted from
// today.
func (e Engine) CreateAppealReminder(ctx context.Context, opts ReminderCreateOptions) (domain.AppealReminder, error) {
	if _, err := e.Repo.GetCase(ctx, opts.CaseID); err != nil {
		return domain.AppealReminder{}, fmt.Errorf("case %s: %w", opts.CaseID, err)
	}
	deadline := opts.Deadline
	if deadline == "" {
		deadline = schedule.AppealDeadline(e.now().UTC(), e.Config.Deadlines.AppealWindowDays).Format(schedule.DateLayout)
	} else if _, err := parseDate(deadline, "deadline"); err != nil {
		return domain.AppealReminder{}, err
	}
	now := e.nowString()
	rem := domain.AppealReminder{
		ID:        uuid.New().String(),
		CaseID:    opts.CaseID,
		ResultID:  optionalString(opts.ResultID),
		Deadline:  deadline,
		Notes:     opts.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.AppealReminder{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAppealReminder(ctx, tx, rem); err != nil {
		return domain.AppealReminder{}, fmt.Errorf("insert appeal reminder: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "appeal_reminder", rem.ID, audit.ActionCreate, opts.ActorID, nil, rem); err != nil {
		return domain.AppealReminder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.AppealReminder{}, err
	}
	return rem, nil
}

// ReminderUpdateOptions carries allowed updates. Nil fields are untouched.
type ReminderUpdateOptions struct {
	ID       string
	Deadline *string
	Notes    *string
	Done     *bool
	ActorID  string
}

// UpdateAppealReminder edits deadline and/or notes and optionally completes
// the reminder. Completion is terminal: a completed reminder rejects any
// further update and its completion timestamp is never cleared.
func (e Engine) UpdateAppealReminder(ctx context.Context, opts ReminderUpdateOptions) (domain.AppealReminder, error) {
	before, err := e.Repo.GetAppealReminder(ctx, opts.ID)
	if err != nil {
		return domain.AppealReminder{}, fmt.Errorf("appeal reminder %s: %w", opts.ID, err)
	}
	if before.Done {
		return before, fmt.Errorf("appeal reminder %s is already completed: %w", before.ID, ErrConflict)
	}
	after := before
	if opts.Deadline != nil {
		if _, err := parseDate(*opts.Deadline, "deadline"); err != nil {
			return before, err
		}
		after.Deadline = *opts.Deadline
	}
	if opts.Notes != nil {
		after.Notes = *opts.Notes
	}
	if opts.Done != nil && *opts.Done {
		completedAt := e.nowString()
		after.Done = true
		after.CompletedAt = &completedAt
	}
	after.UpdatedAt = e.nowString()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return before, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateAppealReminder(ctx, tx, after); err != nil {
		return before, fmt.Errorf("update appeal reminder: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "appeal_reminder", after.ID, audit.ActionUpdate, opts.ActorID, before, after); err != nil {
		return before, err
	}
	if err := tx.Commit(); err != nil {
		return before, err
	}
	return after, nil
}

// MarkAppealReminderComplete stamps the reminder done. A second completion
// call is a Conflict.
func (e Engine) MarkAppealReminderComplete(ctx context.Context, id, actorID string) (domain.AppealReminder, error) {
	done := true
	return e.UpdateAppealReminder(ctx, ReminderUpdateOptions{ID: id, Done: &done, ActorID: actorID})
}

func (e Engine) DeleteAppealReminder(ctx context.Context, id, actorID string) error {
	before, err := e.Repo.GetAppealReminder(ctx, id)
	if err != nil {
		return fmt.Errorf("appeal reminder %s: %w", id, err)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAppealReminder(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Audit.Append(ctx, tx, "appeal_reminder", id, audit.ActionDelete, actorID, before, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ReminderView decorates a reminder with the whole-day countdown used by
// list surfaces.
type ReminderView struct {
	domain.AppealReminder
	DaysLeft int `json:"days_left"`
}

// ListActiveReminders returns open appeal reminders, soonest deadline first.
func (e Engine) ListActiveReminders(ctx context.Context, caseID string) ([]ReminderView, error) {
	rems, err := e.Repo.ListActiveAppealReminders(ctx, caseID)
	if err != nil {
		return nil, err
	}
	views := make([]ReminderView, 0, len(rems))
	now := e.now()
	for _, rem := range rems {
		v := ReminderView{AppealReminder: rem}
		if deadline, err := time.Parse(schedule.DateLayout, rem.Deadline); err == nil {
			v.DaysLeft = schedule.DaysUntil(now, deadline)
		}
		views = append(views, v)
	}
	return views, nil
}

// ListCompletedReminders returns done reminders, most recent first.
func (e Engine) ListCompletedReminders(ctx context.Context, limit int) ([]domain.AppealReminder, error) {
	return e.Repo.ListCompletedAppealReminders(ctx, limit)
}

// ListEnrollmentReminders returns the hearings whose enrollment reminder is
// due today: the single show-reminder predicate decides visibility wherever
// reminders surface.
func (e Engine) ListEnrollmentReminders(ctx context.Context) ([]domain.Hearing, error) {
	today := e.today()
	candidates, err := e.Repo.ListEnrollmentCandidates(ctx, today.Format(schedule.DateLayout))
	if err != nil {
		return nil, err
	}
	var due []domain.Hearing
	for _, h := range candidates {
		hearingDate, err := time.Parse(schedule.DateLayout, h.Date)
		if err != nil {
			continue
		}
		reminderDate, err := time.Parse(schedule.DateLayout, *h.EnrollDate)
		if err != nil {
			continue
		}
		if schedule.ShowReminderToday(today, hearingDate, reminderDate) {
			due = append(due, h)
		}
	}
	return due, nil
}

// MarkEnrollmentComplete records that the court filing was enrolled.
func (e Engine) MarkEnrollmentComplete(ctx context.Context, hearingID, actorID string) (domain.Hearing, error) {
	before, err := e.Repo.GetHearing(ctx, hearingID)
	if err != nil {
		return domain.Hearing{}, fmt.Errorf("hearing %s: %w", hearingID, err)
	}
	if !before.EnrollRequired {
		return before, validationf("hearing %s has no enrollment reminder", before.ID)
	}
	if before.EnrollDone {
		return before, fmt.Errorf("enrollment for hearing %s already completed: %w", before.ID, ErrConflict)
	}
	after := before
	after.EnrollDone = true
	after.UpdatedAt = e.nowString()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return before, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateHearing(ctx, tx, after); err != nil {
		return before, err
	}
	if err := e.Audit.Append(ctx, tx, "hearing", after.ID, audit.ActionUpdate, actorID, before, after); err != nil {
		return before, err
	}
	if err := tx.Commit(); err != nil {
		return before, err
	}
	return after, nil
}

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Souleye05/legal-agenda-sub000/internal/audit"
	"github.com/Souleye05/legal-agenda-sub000/internal/config"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/notify"
	"github.com/Souleye05/legal-agenda-sub000/internal/repo"
	"github.com/Souleye05/legal-agenda-sub000/internal/schedule"
)

// ErrConflict marks operations rejected because the entity is already in a
// terminal state: a second result on a hearing, a second completion of a
// reminder.
var ErrConflict = errors.New("conflict")

// ValidationError is returned before any write when a request is missing a
// required field or carries one that cannot be parsed.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Audit  audit.Writer
	Config *config.Config
	Sender notify.Sender
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Audit:  audit.Writer{DB: db},
		Config: cfg,
		Sender: notify.FromConfig(cfg),
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// today is the current processing date at midnight UTC.
func (e Engine) today() time.Time {
	return schedule.Midnight(e.now().UTC())
}

func (e Engine) nowString() string {
	return e.now().UTC().Format(time.RFC3339)
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(schedule.DateLayout, value)
	if err != nil {
		return time.Time{}, validationf("%s must be a %s date, got %q", field, schedule.DateLayout, value)
	}
	return t, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CaseCreateOptions are parameters for opening a case.
type CaseCreateOptions struct {
	ID            string
	Reference     string
	Title         string
	OpposingParty string
	OwnerID       string
	ActorID       string
}

func (e Engine) CreateCase(ctx context.Context, opts CaseCreateOptions) (domain.Case, error) {
	if opts.Reference == "" {
		return domain.Case{}, validationf("reference is required")
	}
	if opts.Title == "" {
		return domain.Case{}, validationf("title is required")
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	owner := opts.OwnerID
	if owner == "" {
		owner = opts.ActorID
	}
	now := e.nowString()
	c := domain.Case{
		ID:            id,
		Reference:     opts.Reference,
		Title:         opts.Title,
		OpposingParty: opts.OpposingParty,
		Status:        domain.CaseActive,
		OwnerID:       owner,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertCase(ctx, tx, c); err != nil {
		return domain.Case{}, fmt.Errorf("insert case: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "case", c.ID, audit.ActionCreate, opts.ActorID, nil, c); err != nil {
		return domain.Case{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Case{}, err
	}
	return c, nil
}

// HearingCreateOptions are parameters for extending a case's docket.
type HearingCreateOptions struct {
	CaseID         string
	Date           string
	Time           string
	Type           string
	Court          string
	PrepNotes      string
	EnrollRequired bool
	ActorID        string
}

// CreateHearing schedules a hearing. Status is derived from the scheduled
// date: upcoming when it is today or later, unreported when it is already
// past (a backdated hearing with no result is flagged immediately, alert
// included).
func (e Engine) CreateHearing(ctx context.Context, opts HearingCreateOptions) (domain.Hearing, error) {
	h, err := e.buildHearing(ctx, opts)
	if err != nil {
		return domain.Hearing{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Hearing{}, err
	}
	defer tx.Rollback()
	if err := e.insertHearingTx(ctx, tx, h, opts.ActorID); err != nil {
		return domain.Hearing{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Hearing{}, err
	}
	return h, nil
}

// buildHearing validates options and derives initial status and the
// enrollment reminder date.
func (e Engine) buildHearing(ctx context.Context, opts HearingCreateOptions) (domain.Hearing, error) {
	if opts.Type == "" {
		return domain.Hearing{}, validationf("type is required")
	}
	date, err := parseDate(opts.Date, "date")
	if err != nil {
		return domain.Hearing{}, err
	}
	if opts.Time != "" {
		if _, err := time.Parse("15:04", opts.Time); err != nil {
			return domain.Hearing{}, validationf("time must be HH:MM, got %q", opts.Time)
		}
	}
	c, err := e.Repo.GetCase(ctx, opts.CaseID)
	if err != nil {
		return domain.Hearing{}, fmt.Errorf("case %s: %w", opts.CaseID, err)
	}
	if c.Status != domain.CaseActive {
		return domain.Hearing{}, validationf("case %s is %s; docket is closed", c.ID, c.Status)
	}
	status := domain.HearingUpcoming
	if date.Before(e.today()) {
		status = domain.HearingUnreported
	}
	now := e.nowString()
	h := domain.Hearing{
		ID:             uuid.New().String(),
		CaseID:         opts.CaseID,
		Date:           date.Format(schedule.DateLayout),
		Time:           optionalString(opts.Time),
		Type:           opts.Type,
		Court:          opts.Court,
		Status:         status,
		PrepNotes:      opts.PrepNotes,
		EnrollRequired: opts.EnrollRequired,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if opts.EnrollRequired {
		lead := e.Config.Deadlines.EnrollmentLeadDays
		reminder := schedule.EnrollmentReminderDate(date, lead).Format(schedule.DateLayout)
		h.EnrollDate = &reminder
	}
	return h, nil
}

// insertHearingTx writes the hearing, its audit row, and, when the hearing is
// born unreported, its alert.
func (e Engine) insertHearingTx(ctx context.Context, tx *sql.Tx, h domain.Hearing, actorID string) error {
	if err := e.Repo.InsertHearing(ctx, tx, h); err != nil {
		return fmt.Errorf("insert hearing: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "hearing", h.ID, audit.ActionCreate, actorID, nil, h); err != nil {
		return err
	}
	if h.Status == domain.HearingUnreported {
		if _, err := e.ensureAlertTx(ctx, tx, h.ID, actorID); err != nil {
			return err
		}
	}
	return nil
}

// ListUnreportedHearings returns hearings whose date passed without a result.
func (e Engine) ListUnreportedHearings(ctx context.Context) ([]domain.Hearing, error) {
	return e.Repo.ListHearings(ctx, repo.HearingFilters{Status: domain.HearingUnreported, NoResult: true})
}

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Souleye05/legal-agenda-sub000/internal/audit"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/repo"
)

// EnsureAlert guarantees the hearing has exactly one open alert. Repeated
// calls are no-ops, so sweep reruns never duplicate alerts.
func (e Engine) EnsureAlert(ctx context.Context, hearingID, actorID string) (bool, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	created, err := e.ensureAlertTx(ctx, tx, hearingID, actorID)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return created, nil
}

func (e Engine) ensureAlertTx(ctx context.Context, tx *sql.Tx, hearingID, actorID string) (bool, error) {
	a := domain.Alert{
		ID:        uuid.New().String(),
		HearingID: hearingID,
		Status:    domain.AlertPending,
		CreatedAt: e.nowString(),
	}
	created, err := e.Repo.InsertAlertIfNone(ctx, tx, a)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	if !created {
		return false, nil
	}
	if err := e.Audit.Append(ctx, tx, "alert", a.ID, audit.ActionCreate, actorID, nil, a); err != nil {
		return false, err
	}
	return true, nil
}

// ResolveAlerts closes any open alert on the hearing. No-op when none exists.
func (e Engine) ResolveAlerts(ctx context.Context, hearingID, actorID string) error {
	before, err := e.Repo.GetOpenAlert(ctx, hearingID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	resolvedAt := e.nowString()
	n, err := e.Repo.ResolveOpenAlerts(ctx, tx, hearingID, resolvedAt)
	if err != nil {
		return fmt.Errorf("resolve alerts: %w", err)
	}
	if n == 0 {
		return nil
	}
	after := before
	after.Status = domain.AlertResolved
	after.ResolvedAt = &resolvedAt
	if err := e.Audit.Append(ctx, tx, "alert", before.ID, audit.ActionUpdate, actorID, before, after); err != nil {
		return err
	}
	return tx.Commit()
}

// FlushPending sends every pending alert to the notification collaborator.
// A failed handoff leaves the alert pending for the next flush; a successful
// one marks it sent and bumps the send counter. Returns the number of alerts
// sent.
func (e Engine) FlushPending(ctx context.Context, actorID string) (int, error) {
	pending, err := e.Repo.ListAlertsByStatus(ctx, domain.AlertPending)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	recipients := e.Config.Notifications.Recipients
	if len(recipients) == 0 {
		log.Printf("flush: %d pending alerts but no recipients configured", len(pending))
		return 0, nil
	}
	sent := 0
	for _, a := range pending {
		if err := e.flushAlert(ctx, a, recipients, actorID); err != nil {
			log.Printf("flush: alert %s: %v", a.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (e Engine) flushAlert(ctx context.Context, a domain.Alert, recipients []string, actorID string) error {
	h, err := e.Repo.GetHearing(ctx, a.HearingID)
	if err != nil {
		return fmt.Errorf("hearing %s: %w", a.HearingID, err)
	}
	c, err := e.Repo.GetCase(ctx, h.CaseID)
	if err != nil {
		return fmt.Errorf("case %s: %w", h.CaseID, err)
	}
	subject, body := renderAlert(h, c)
	// Network I/O happens here, outside any transaction; only the alert row
	// is touched afterwards.
	for _, to := range recipients {
		if err := e.Sender.Send(ctx, to, subject, body); err != nil {
			return fmt.Errorf("send to %s: %w", to, err)
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	sentAt := e.nowString()
	if err := e.Repo.MarkAlertSent(ctx, tx, a.ID, sentAt); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	after := a
	after.Status = domain.AlertSent
	after.SendCount = a.SendCount + 1
	after.LastSentAt = &sentAt
	if err := e.Audit.Append(ctx, tx, "alert", a.ID, audit.ActionUpdate, actorID, a, after); err != nil {
		return err
	}
	return tx.Commit()
}

func renderAlert(h domain.Hearing, c domain.Case) (subject, body string) {
	subject = fmt.Sprintf("Unreported hearing: %s — %s", c.Reference, h.Date)
	when := h.Date
	if h.Time != nil {
		when = fmt.Sprintf("%s %s", h.Date, *h.Time)
	}
	body = fmt.Sprintf(`<p>The hearing below has passed without a recorded outcome.</p>
<table>
<tr><td>Case</td><td>%s — %s</td></tr>
<tr><td>Opposing party</td><td>%s</td></tr>
<tr><td>Hearing</td><td>%s (%s)</td></tr>
<tr><td>Court</td><td>%s</td></tr>
</table>
<p>Please record the outcome (renvoi, radiation or d&eacute;lib&eacute;r&eacute;).</p>`,
		c.Reference, c.Title, c.OpposingParty, when, h.Type, h.Court)
	return subject, body
}

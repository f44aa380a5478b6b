package repo

import (
	"context"
	"database/sql"

	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
)

const alertColumns = `id,hearing_id,status,send_count,last_sent_at,resolved_at,created_at`

// InsertAlertIfNone creates a pending alert unless the hearing already has an
// open one. The partial unique index ux_alerts_open makes this race-safe:
// INSERT OR IGNORE is a no-op when an open alert exists.
func (r Repo) InsertAlertIfNone(ctx context.Context, tx *sql.Tx, a domain.Alert) (bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO alerts(id,hearing_id,status,send_count,created_at) VALUES (?,?,?,?,?)`,
		a.ID, a.HearingID, a.Status, a.SendCount, a.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanAlert(scan func(...any) error) (domain.Alert, error) {
	var a domain.Alert
	var lastSent, resolved sql.NullString
	err := scan(&a.ID, &a.HearingID, &a.Status, &a.SendCount, &lastSent, &resolved, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if lastSent.Valid {
		a.LastSentAt = &lastSent.String
	}
	if resolved.Valid {
		a.ResolvedAt = &resolved.String
	}
	return a, nil
}

func (r Repo) GetAlert(ctx context.Context, id string) (domain.Alert, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id=?`, id)
	return scanAlert(row.Scan)
}

// GetOpenAlert returns the pending or sent alert for a hearing, if any.
func (r Repo) GetOpenAlert(ctx context.Context, hearingID string) (domain.Alert, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE hearing_id=? AND status IN (?,?) LIMIT 1`,
		hearingID, domain.AlertPending, domain.AlertSent)
	return scanAlert(row.Scan)
}

func (r Repo) ListAlertsByStatus(ctx context.Context, status string) ([]domain.Alert, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE status=? ORDER BY created_at ASC, id ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) ListAlertsByHearing(ctx context.Context, hearingID string) ([]domain.Alert, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE hearing_id=? ORDER BY created_at ASC, id ASC`, hearingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// ResolveOpenAlerts closes every pending or sent alert for a hearing and
// returns how many rows changed.
func (r Repo) ResolveOpenAlerts(ctx context.Context, tx *sql.Tx, hearingID, resolvedAt string) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE alerts SET status=?, resolved_at=? WHERE hearing_id=? AND status IN (?,?)`,
		domain.AlertResolved, resolvedAt, hearingID, domain.AlertPending, domain.AlertSent)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkAlertSent flips a pending alert to sent and bumps its send counter.
func (r Repo) MarkAlertSent(ctx context.Context, tx *sql.Tx, id, sentAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE alerts SET status=?, send_count=send_count+1, last_sent_at=? WHERE id=? AND status=?`,
		domain.AlertSent, sentAt, id, domain.AlertPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

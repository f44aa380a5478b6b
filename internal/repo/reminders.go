package repo

import (
	"context"
	"database/sql"

	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
)

const reminderColumns = `id,case_id,result_id,deadline,done,completed_at,notes,created_at,updated_at`

func (r Repo) InsertAppealReminder(ctx context.Context, tx *sql.Tx, rem domain.AppealReminder) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO appeal_reminders(`+reminderColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		rem.ID, rem.CaseID, nullableStringPtr(rem.ResultID), rem.Deadline, boolToInt(rem.Done),
		nullableStringPtr(rem.CompletedAt), nullable(rem.Notes), rem.CreatedAt, rem.UpdatedAt)
	return err
}

func scanReminder(scan func(...any) error) (domain.AppealReminder, error) {
	var rem domain.AppealReminder
	var resultID, completedAt, notes sql.NullString
	var done int
	err := scan(&rem.ID, &rem.CaseID, &resultID, &rem.Deadline, &done, &completedAt, &notes, &rem.CreatedAt, &rem.UpdatedAt)
	if err == sql.ErrNoRows {
		return rem, ErrNotFound
	}
	if err != nil {
		return rem, err
	}
	if resultID.Valid {
		rem.ResultID = &resultID.String
	}
	if completedAt.Valid {
		rem.CompletedAt = &completedAt.String
	}
	if notes.Valid {
		rem.Notes = notes.String
	}
	rem.Done = done != 0
	return rem, nil
}

func (r Repo) GetAppealReminder(ctx context.Context, id string) (domain.AppealReminder, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM appeal_reminders WHERE id=?`, id)
	return scanReminder(row.Scan)
}

// ListActiveAppealReminders returns open reminders ordered by soonest
// deadline first.
func (r Repo) ListActiveAppealReminders(ctx context.Context, caseID string) ([]domain.AppealReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM appeal_reminders WHERE done=0`
	var args []any
	if caseID != "" {
		query += ` AND case_id=?`
		args = append(args, caseID)
	}
	query += ` ORDER BY deadline ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AppealReminder
	for rows.Next() {
		rem, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, rem)
	}
	return res, rows.Err()
}

// ListCompletedAppealReminders returns done reminders, most recently
// completed first, bounded by limit.
func (r Repo) ListCompletedAppealReminders(ctx context.Context, limit int) ([]domain.AppealReminder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM appeal_reminders WHERE done=1 ORDER BY completed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AppealReminder
	for rows.Next() {
		rem, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, rem)
	}
	return res, rows.Err()
}

func (r Repo) UpdateAppealReminder(ctx context.Context, tx *sql.Tx, rem domain.AppealReminder) error {
	res, err := tx.ExecContext(ctx, `UPDATE appeal_reminders SET deadline=?, done=?, completed_at=?, notes=?, updated_at=? WHERE id=?`,
		rem.Deadline, boolToInt(rem.Done), nullableStringPtr(rem.CompletedAt), nullable(rem.Notes), rem.UpdatedAt, rem.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteAppealReminder(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM appeal_reminders WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEnrollmentCandidates returns hearings with an enrollment reminder that
// is not yet done and whose hearing date has not passed. The caller applies
// the show-reminder-today predicate.
func (r Repo) ListEnrollmentCandidates(ctx context.Context, today string) ([]domain.Hearing, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+hearingColumns+` FROM hearings WHERE enroll_required=1 AND enroll_done=0 AND enroll_date IS NOT NULL AND date > ? ORDER BY date ASC, id ASC`,
		today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Hearing
	for rows.Next() {
		h, err := scanHearing(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

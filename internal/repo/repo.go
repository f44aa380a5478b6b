package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- cases ---

func (r Repo) InsertCase(ctx context.Context, tx *sql.Tx, c domain.Case) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO cases(id,reference,title,opposing_party,status,owner_id,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		c.ID, c.Reference, c.Title, nullable(c.OpposingParty), c.Status, c.OwnerID, c.CreatedAt, c.UpdatedAt)
	return err
}

func scanCase(scan func(...any) error) (domain.Case, error) {
	var c domain.Case
	var opposing sql.NullString
	err := scan(&c.ID, &c.Reference, &c.Title, &opposing, &c.Status, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if opposing.Valid {
		c.OpposingParty = opposing.String
	}
	return c, nil
}

const caseColumns = `id,reference,title,opposing_party,status,owner_id,created_at,updated_at`

func (r Repo) GetCase(ctx context.Context, id string) (domain.Case, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=?`, id)
	return scanCase(row.Scan)
}

func (r Repo) GetCaseTx(ctx context.Context, tx *sql.Tx, id string) (domain.Case, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=?`, id)
	return scanCase(row.Scan)
}

func (r Repo) ListCases(ctx context.Context, status string, limit int) ([]domain.Case, error) {
	var clauses []string
	var args []any
	if status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + caseColumns + ` FROM cases ` + where + ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Case
	for rows.Next() {
		c, err := scanCase(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) UpdateCaseStatus(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE cases SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- hearings ---

const hearingColumns = `id,case_id,date,time,type,court,status,result_id,prep_notes,enroll_required,enroll_date,enroll_done,created_at,updated_at`

func (r Repo) InsertHearing(ctx context.Context, tx *sql.Tx, h domain.Hearing) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO hearings(`+hearingColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.ID, h.CaseID, h.Date, nullableStringPtr(h.Time), h.Type, nullable(h.Court), h.Status,
		nullableStringPtr(h.ResultID), nullable(h.PrepNotes), boolToInt(h.EnrollRequired),
		nullableStringPtr(h.EnrollDate), boolToInt(h.EnrollDone), h.CreatedAt, h.UpdatedAt)
	return err
}

func scanHearing(scan func(...any) error) (domain.Hearing, error) {
	var h domain.Hearing
	var hTime, court, resultID, prepNotes, enrollDate sql.NullString
	var enrollRequired, enrollDone int
	err := scan(&h.ID, &h.CaseID, &h.Date, &hTime, &h.Type, &court, &h.Status, &resultID,
		&prepNotes, &enrollRequired, &enrollDate, &enrollDone, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	if err != nil {
		return h, err
	}
	if hTime.Valid {
		h.Time = &hTime.String
	}
	if court.Valid {
		h.Court = court.String
	}
	if resultID.Valid {
		h.ResultID = &resultID.String
	}
	if prepNotes.Valid {
		h.PrepNotes = prepNotes.String
	}
	if enrollDate.Valid {
		h.EnrollDate = &enrollDate.String
	}
	h.EnrollRequired = enrollRequired != 0
	h.EnrollDone = enrollDone != 0
	return h, nil
}

func (r Repo) GetHearing(ctx context.Context, id string) (domain.Hearing, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+hearingColumns+` FROM hearings WHERE id=?`, id)
	return scanHearing(row.Scan)
}

func (r Repo) GetHearingTx(ctx context.Context, tx *sql.Tx, id string) (domain.Hearing, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+hearingColumns+` FROM hearings WHERE id=?`, id)
	return scanHearing(row.Scan)
}

// HearingFilters narrows ListHearings. Zero values are ignored.
type HearingFilters struct {
	CaseID     string
	Status     string
	DateBefore string
	DateFrom   string
	NoResult   bool
	Limit      int
}

func (r Repo) ListHearings(ctx context.Context, f HearingFilters) ([]domain.Hearing, error) {
	var clauses []string
	var args []any
	if f.CaseID != "" {
		clauses = append(clauses, "case_id=?")
		args = append(args, f.CaseID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.DateBefore != "" {
		clauses = append(clauses, "date < ?")
		args = append(args, f.DateBefore)
	}
	if f.DateFrom != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.NoResult {
		clauses = append(clauses, "result_id IS NULL")
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + hearingColumns + ` FROM hearings ` + where + ` ORDER BY date ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
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

// CountLapsedHearings counts upcoming hearings scheduled before the given
// date with no recorded result, without mutating anything.
func (r Repo) CountLapsedHearings(ctx context.Context, before string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM hearings WHERE status=? AND date < ? AND result_id IS NULL`,
		domain.HearingUpcoming, before).Scan(&n)
	return n, err
}

func (r Repo) UpdateHearing(ctx context.Context, tx *sql.Tx, h domain.Hearing) error {
	res, err := tx.ExecContext(ctx, `UPDATE hearings SET date=?, time=?, type=?, court=?, status=?, result_id=?, prep_notes=?, enroll_required=?, enroll_date=?, enroll_done=?, updated_at=? WHERE id=?`,
		h.Date, nullableStringPtr(h.Time), h.Type, nullable(h.Court), h.Status, nullableStringPtr(h.ResultID),
		nullable(h.PrepNotes), boolToInt(h.EnrollRequired), nullableStringPtr(h.EnrollDate), boolToInt(h.EnrollDone),
		h.UpdatedAt, h.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkHearingUnreported flips an upcoming hearing to unreported, guarded so a
// concurrently recorded result wins the race: the row only changes while it
// is still upcoming with no result.
func (r Repo) MarkHearingUnreported(ctx context.Context, tx *sql.Tx, id, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE hearings SET status=?, updated_at=? WHERE id=? AND status=? AND result_id IS NULL`,
		domain.HearingUnreported, updatedAt, id, domain.HearingUpcoming)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// --- results ---

func (r Repo) InsertResult(ctx context.Context, tx *sql.Tx, res domain.Result) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO results(id,hearing_id,kind,new_date,reason,decision,created_at) VALUES (?,?,?,?,?,?,?)`,
		res.ID, res.HearingID, res.Kind, nullableStringPtr(res.NewDate), nullable(res.Reason), nullable(res.Decision), res.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("hearing %s already has a result: %w", res.HearingID, err)
	}
	return err
}

func scanResult(scan func(...any) error) (domain.Result, error) {
	var res domain.Result
	var newDate, reason, decision sql.NullString
	err := scan(&res.ID, &res.HearingID, &res.Kind, &newDate, &reason, &decision, &res.CreatedAt)
	if err == sql.ErrNoRows {
		return res, ErrNotFound
	}
	if err != nil {
		return res, err
	}
	if newDate.Valid {
		res.NewDate = &newDate.String
	}
	if reason.Valid {
		res.Reason = reason.String
	}
	if decision.Valid {
		res.Decision = decision.String
	}
	return res, nil
}

func (r Repo) GetResult(ctx context.Context, id string) (domain.Result, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,hearing_id,kind,new_date,reason,decision,created_at FROM results WHERE id=?`, id)
	return scanResult(row.Scan)
}

func (r Repo) GetResultByHearing(ctx context.Context, hearingID string) (domain.Result, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,hearing_id,kind,new_date,reason,decision,created_at FROM results WHERE hearing_id=?`, hearingID)
	return scanResult(row.Scan)
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Actions recorded in the audit log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Writer appends audit rows inside the caller's transaction so a rolled-back
// mutation leaves no trace.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Append records one mutation with full before/after entity snapshots.
// A nil snapshot is stored as NULL (no prior state on create, no remaining
// state on delete).
func (w Writer) Append(ctx context.Context, tx *sql.Tx, entityKind, entityID, action, actorID string, before, after any) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	beforeJSON, err := snapshot(before)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	afterJSON, err := snapshot(after)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO audit_log(ts,entity_kind,entity_id,action,actor_id,before_json,after_json) VALUES (?,?,?,?,?,?,?)`,
		ts, entityKind, entityID, action, actorID, beforeJSON, afterJSON)
	return err
}

func snapshot(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"reviewdraw/pkg/platform/audit"
)

// Store appends operator events to the audit_events table.
// Inserts are idempotent on event id so a retried delivery never duplicates a row.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, action, module, timestamp, record_id, project_name,
			operator_id, request_id, category, expert_name,
			replaced_name, new_name, reason, content
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Action),
		event.Action.Module(),
		event.Timestamp,
		event.RecordID,
		event.ProjectName,
		event.OperatorID,
		event.RequestID,
		event.Category,
		event.ExpertName,
		event.ReplacedName,
		event.NewName,
		event.Reason,
		event.Content,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRecord returns a record's events oldest first.
func (s *Store) ListByRecord(ctx context.Context, recordID string) ([]audit.Event, error) {
	query := `
		SELECT id, action, timestamp, record_id, project_name,
			   operator_id, request_id, category, expert_name,
			   replaced_name, new_name, reason, content
		FROM audit_events
		WHERE record_id = $1
		ORDER BY timestamp ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event  audit.Event
			action string
		)
		if err := rows.Scan(
			&event.ID,
			&action,
			&event.Timestamp,
			&event.RecordID,
			&event.ProjectName,
			&event.OperatorID,
			&event.RequestID,
			&event.Category,
			&event.ExpertName,
			&event.ReplacedName,
			&event.NewName,
			&event.Reason,
			&event.Content,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "lectern/pkg/domain"
	audit "lectern/pkg/platform/audit"
)

// Schema creates the event log table. Events are keyed by their own ID so a
// replayed Append is a no-op.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_events (
	id            UUID PRIMARY KEY,
	record_id     UUID NOT NULL,
	instructor_id UUID NOT NULL,
	category      TEXT NOT NULL,
	step          TEXT NOT NULL DEFAULT '',
	action        TEXT NOT NULL,
	status        TEXT NOT NULL,
	performed_by  TEXT NOT NULL,
	metadata      JSONB,
	request_id    TEXT NOT NULL DEFAULT '',
	occurred_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS verification_events_record_idx
	ON verification_events (record_id, occurred_at);
`

// Store implements audit.Store on a verification_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("audit event id: %w", err)
	}
	var metadata []byte
	if len(event.Metadata) > 0 {
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_events (
			id, record_id, instructor_id, category, step, action,
			status, performed_by, metadata, request_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		eventID,
		uuid.UUID(event.RecordID),
		uuid.UUID(event.InstructorID),
		string(event.Category),
		event.Step,
		event.Action,
		event.Status,
		event.PerformedBy,
		metadata,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRecord returns the events of one record, oldest first.
func (s *Store) ListByRecord(ctx context.Context, recordID id.RecordID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, instructor_id, category, step, action,
		       status, performed_by, metadata, request_id, occurred_at
		FROM verification_events
		WHERE record_id = $1
		ORDER BY occurred_at, id`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			ev           audit.Event
			eventID      uuid.UUID
			recID        uuid.UUID
			instructorID uuid.UUID
			category     string
			metadata     []byte
		)
		if err := rows.Scan(&eventID, &recID, &instructorID, &category, &ev.Step, &ev.Action,
			&ev.Status, &ev.PerformedBy, &metadata, &ev.RequestID, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.ID = eventID.String()
		ev.RecordID = id.RecordID(recID)
		ev.InstructorID = id.UserID(instructorID)
		ev.Category = audit.EventCategory(category)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	"lectern/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore keeps each record as a JSONB document with a version column.
// Execute is an optimistic compare-and-swap on version.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.Record) error {
	doc, history, err := encode(rec)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO verification_records
			(id, instructor_id, status, document, history, version, submitted_at, decided_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.InstructorID.String(),
		string(rec.Status),
		string(doc),
		string(history),
		rec.SubmittedAt,
		decidedAt(rec),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create verification record: %w", err)
	}
	rec.Version = 1
	return nil
}

const selectColumns = `document, history, version`

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	return s.findOne(ctx, `SELECT `+selectColumns+` FROM verification_records WHERE id = $1`, recordID.String())
}

func (s *PostgresStore) FindByInstructor(ctx context.Context, instructorID id.UserID) (*models.Record, error) {
	return s.findOne(ctx, `SELECT `+selectColumns+` FROM verification_records WHERE instructor_id = $1`, instructorID.String())
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg string) (*models.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	return rec, nil
}

// Execute reads the current document, applies mutate, and writes it back only
// if the version is unchanged, retrying on a lost race.
func (s *PostgresStore) Execute(ctx context.Context, recordID id.RecordID, mutate func(*models.Record) error) (*models.Record, error) {
	for range maxExecuteRetries {
		current, err := s.FindByID(ctx, recordID)
		if err != nil {
			return nil, err
		}
		expected := current.Version
		if err := mutate(current); err != nil {
			return nil, err
		}
		current.Version = expected + 1

		ok, err := s.compareAndSwap(ctx, current, expected)
		if err != nil {
			return nil, err
		}
		if ok {
			return current, nil
		}
	}
	return nil, sentinel.ErrVersionConflict
}

func (s *PostgresStore) compareAndSwap(ctx context.Context, rec *models.Record, expected int64) (bool, error) {
	doc, history, err := encode(rec)
	if err != nil {
		return false, err
	}
	query := `
		UPDATE verification_records
		SET status = $2, document = $3, history = $4, version = $5,
			submitted_at = $6, decided_at = $7, updated_at = $8
		WHERE id = $1 AND version = $9
	`
	result, err := s.db.ExecContext(ctx, query,
		rec.ID.String(),
		string(rec.Status),
		string(doc),
		string(history),
		rec.Version,
		rec.SubmittedAt,
		decidedAt(rec),
		rec.UpdatedAt,
		expected,
	)
	if err != nil {
		return false, fmt.Errorf("update verification record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update verification record rows affected: %w", err)
	}
	return rows == 1, nil
}

// AppendHistory appends one entry atomically. The version bump makes any
// in-flight Execute retry against the extended history.
func (s *PostgresStore) AppendHistory(ctx context.Context, recordID id.RecordID, entry models.HistoryEntry) error {
	raw, err := json.Marshal([]models.HistoryEntry{entry})
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE verification_records
		SET history = history || $2::jsonb, version = version + 1
		WHERE id = $1
	`, recordID.String(), string(raw))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append history rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*models.Record, int, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		args = append(args, search+"%")
		where = append(where, fmt.Sprintf("(instructor_id::text LIKE $%d OR id::text LIKE $%d)", len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_records`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count verification records: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM verification_records%s ORDER BY updated_at DESC, id LIMIT $%d OFFSET $%d`,
		selectColumns, clause, len(args)+1, len(args)+2)

	records, err := s.queryRecords(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM verification_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int, len(models.AllStatuses))
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) ListDecidedSince(ctx context.Context, since time.Time) ([]*models.Record, error) {
	return s.queryRecords(ctx,
		`SELECT `+selectColumns+` FROM verification_records WHERE decided_at >= $1 ORDER BY decided_at`, since)
}

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verification records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		doc, history []byte
		version      int64
	)
	if err := row.Scan(&doc, &history, &version); err != nil {
		return nil, err
	}
	var rec models.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode verification document: %w", err)
	}
	if err := json.Unmarshal(history, &rec.History); err != nil {
		return nil, fmt.Errorf("decode verification history: %w", err)
	}
	rec.Version = version
	return &rec, nil
}

// encode splits a record into its document and history columns.
func encode(rec *models.Record) (doc, history []byte, err error) {
	body := *rec
	body.History = nil
	if doc, err = json.Marshal(body); err != nil {
		return nil, nil, fmt.Errorf("encode verification document: %w", err)
	}
	entries := rec.History
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	if history, err = json.Marshal(entries); err != nil {
		return nil, nil, fmt.Errorf("encode verification history: %w", err)
	}
	return doc, history, nil
}

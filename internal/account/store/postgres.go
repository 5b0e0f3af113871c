package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lectern/internal/account/models"
	id "lectern/pkg/domain"
	"lectern/pkg/platform/sentinel"
)

// Schema creates the accounts table. In a full marketplace deployment this
// table is owned by the account service; the verification service only needs
// the columns below.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id              UUID PRIMARY KEY,
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	first_name      TEXT NOT NULL DEFAULT '',
	role            TEXT NOT NULL,
	instructor_profile JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore reads and row-locks accounts through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, acc *models.Account) error {
	profile, err := json.Marshal(acc.InstructorProfile)
	if err != nil {
		return fmt.Errorf("encode instructor profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, phone, first_name, role, instructor_profile, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			first_name = EXCLUDED.first_name,
			role = EXCLUDED.role,
			instructor_profile = EXCLUDED.instructor_profile,
			updated_at = EXCLUDED.updated_at
	`, acc.ID.String(), acc.Email, acc.Phone, acc.FirstName, acc.Role, string(profile), acc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

const accountColumns = `id, email, phone, first_name, role, instructor_profile, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.Account, error) {
	acc, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, userID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

// Update locks the row for the duration of mutate.
func (s *PostgresStore) Update(ctx context.Context, userID id.UserID, mutate func(*models.Account) error) (*models.Account, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin account update: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	acc, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, userID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if err := mutate(acc); err != nil {
		return nil, err
	}
	profile, err := json.Marshal(acc.InstructorProfile)
	if err != nil {
		return nil, fmt.Errorf("encode instructor profile: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET role = $2, instructor_profile = $3, updated_at = $4 WHERE id = $1
	`, acc.ID.String(), acc.Role, string(profile), acc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit account update: %w", err)
	}
	return acc, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		acc     models.Account
		rawID   string
		profile []byte
	)
	if err := row.Scan(&rawID, &acc.Email, &acc.Phone, &acc.FirstName, &acc.Role, &profile, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	acc.ID = userID
	if err := json.Unmarshal(profile, &acc.InstructorProfile); err != nil {
		return nil, fmt.Errorf("decode instructor profile: %w", err)
	}
	return &acc, nil
}

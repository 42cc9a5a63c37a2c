package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"libreconsent/internal/consentlog/models"
)

// PostgresStore persists audit records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("audit record is required")
	}
	query := `
		INSERT INTO consent_log (created_at, consent_hash, categories, version_hash, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		record.CreatedAt,
		record.ConsentHash,
		strings.Join(record.Categories, ","),
		record.VersionHash,
		record.Source,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("append consent record: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter *models.RecordFilter) ([]*models.Record, error) {
	query := `
		SELECT id, created_at, consent_hash, categories, version_hash, source
		FROM consent_log
	`
	var args []any
	if filter != nil && filter.Since != nil {
		query += " WHERE created_at >= $1"
		args = append(args, *filter.Since)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consent records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM consent_log`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count consent records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM consent_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep consent records: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep consent records rows: %w", err)
	}
	return deleted, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.Record, error) {
	var record models.Record
	var categories string
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.ConsentHash, &categories, &record.VersionHash, &record.Source); err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	if categories != "" {
		record.Categories = strings.Split(categories, ",")
	}
	return &record, nil
}

// PostgresSecretStore persists the hashing secret in the settings table.
type PostgresSecretStore struct {
	db *sql.DB
}

// NewPostgresSecretStore constructs a PostgreSQL-backed secret store.
func NewPostgresSecretStore(db *sql.DB) *PostgresSecretStore {
	return &PostgresSecretStore{db: db}
}

const secretKey = "consent_hash_secret"

// Ensure inserts candidate under the fixed settings key unless a value
// already exists, then reads back whichever value won. ON CONFLICT DO NOTHING
// makes concurrent provisioning race-free: exactly one candidate lands.
func (s *PostgresSecretStore) Ensure(ctx context.Context, candidate string) (string, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consent_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, secretKey, candidate)
	if err != nil {
		return "", fmt.Errorf("provision consent secret: %w", err)
	}
	return s.Get(ctx)
}

func (s *PostgresSecretStore) Get(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM consent_settings WHERE key = $1`, secretKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read consent secret: %w", err)
	}
	return value, nil
}

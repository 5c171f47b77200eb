package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/puzzle"
)

// PostgresStore keeps records in the puzzle_records table created by
// RunMigrations.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresDB opens and pings a PostgreSQL connection.
func NewPostgresDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, date puzzle.Date) (*puzzle.Record, error) {
	var payload []byte
	query := `SELECT payload FROM puzzle_records WHERE cache_key = $1`

	err := s.db.GetContext(ctx, &payload, query, puzzle.Key(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", date, err)
	}
	return Decode(payload)
}

// Put implements Store with an upsert.
func (s *PostgresStore) Put(ctx context.Context, rec *puzzle.Record) error {
	payload, err := Encode(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO puzzle_records (cache_key, puzzle_date, provenance, payload, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cache_key) DO UPDATE SET
			provenance = EXCLUDED.provenance,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	if _, err = s.db.ExecContext(ctx, query, rec.Key(), rec.Date.Time(), rec.Provenance.String(), payload); err != nil {
		return fmt.Errorf("failed to put record %s: %w", rec.Date, err)
	}
	return nil
}

// PutIfAbsent implements Store with ON CONFLICT DO NOTHING.
func (s *PostgresStore) PutIfAbsent(ctx context.Context, rec *puzzle.Record) (bool, error) {
	payload, err := Encode(rec)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO puzzle_records (cache_key, puzzle_date, provenance, payload, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cache_key) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, rec.Key(), rec.Date.Time(), rec.Provenance.String(), payload)
	if err != nil {
		return false, fmt.Errorf("failed to insert record %s: %w", rec.Date, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListRecent implements Store. Undecodable rows are skipped.
func (s *PostgresStore) ListRecent(ctx context.Context, n int) ([]*puzzle.Record, error) {
	if n <= 0 {
		return nil, nil
	}

	var payloads [][]byte
	query := `SELECT payload FROM puzzle_records ORDER BY puzzle_date DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &payloads, query, n); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]*puzzle.Record, 0, len(payloads))
	for _, payload := range payloads {
		if rec, err := Decode(payload); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

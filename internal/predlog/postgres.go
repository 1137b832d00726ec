// internal/predlog/postgres.go
package predlog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresStore appends prediction entries to a postgres table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to postgres and ensures the log table
// exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection (used by tests).
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS waste_predictions (
            id BIGSERIAL PRIMARY KEY,
            ts TIMESTAMPTZ NOT NULL,
            service_label TEXT NOT NULL,
            cost DOUBLE PRECISION NOT NULL,
            prediction DOUBLE PRECISION NOT NULL
        )
    `
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create waste_predictions table: %w", err)
	}
	return nil
}

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	query := `
        INSERT INTO waste_predictions (ts, service_label, cost, prediction)
        VALUES ($1, $2, $3, $4)
    `
	_, err := s.db.ExecContext(ctx, query, e.Timestamp, e.ServiceLabel, e.Cost, e.Prediction)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	query := `
        SELECT ts, service_label, cost, prediction
        FROM waste_predictions
        ORDER BY id DESC
        LIMIT $1
    `
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Timestamp, &e.ServiceLabel, &e.Cost, &e.Prediction); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

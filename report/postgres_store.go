package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/hannes/esic-screener/pii"
	"github.com/hannes/esic-screener/records"
)

// PostgresStore persists classification results for audit. The core pipeline
// stays in-memory; persistence is an optional reporting concern behind
// configuration.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and ensures the results table
// exists.
func NewPostgresStore(config records.PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.MaxLifetime)

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTableIfNotExists(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// createTableIfNotExists creates the classifications table if it doesn't exist
func createTableIfNotExists(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS classifications (
		id SERIAL PRIMARY KEY,
		record_id VARCHAR(100) NOT NULL,
		label VARCHAR(20) NOT NULL,
		entities JSONB NOT NULL,
		classified_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_classifications_record_id ON classifications(record_id);
	CREATE INDEX IF NOT EXISTS idx_classifications_label ON classifications(label);
	`

	_, err := db.Exec(query)
	return err
}

// Save persists one result. Entities go in as JSON so category lists stay
// queryable.
func (s *PostgresStore) Save(ctx context.Context, result pii.ClassificationResult) error {
	entities, err := json.Marshal(result.Entities)
	if err != nil {
		return fmt.Errorf("failed to marshal entities: %w", err)
	}

	query := `
	INSERT INTO classifications (record_id, label, entities, classified_at)
	VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(ctx, query, result.RecordID, result.Label, entities, time.Now()); err != nil {
		return fmt.Errorf("failed to insert classification: %w", err)
	}
	return nil
}

// SaveAll persists every result in order.
func (s *PostgresStore) SaveAll(ctx context.Context, results []pii.ClassificationResult) error {
	for _, result := range results {
		if err := s.Save(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

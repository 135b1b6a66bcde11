package records

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresConfig holds connection settings for a PostgreSQL record source.
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DefaultSourceQuery reads requests in insertion order. The query is
// configurable because column names vary across e-SIC exports; it must
// return (id, text) rows.
const DefaultSourceQuery = `SELECT id::text, request_text FROM requests ORDER BY id`

// PostgresSource streams records from a PostgreSQL table.
type PostgresSource struct {
	db   *sql.DB
	rows *sql.Rows
}

// NewPostgresSource connects, pings and starts the query. The caller owns
// Close.
func NewPostgresSource(config PostgresConfig, query string) (*PostgresSource, error) {
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

	if query == "" {
		query = DefaultSourceQuery
	}

	rows, err := db.Query(query)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	return &PostgresSource{db: db, rows: rows}, nil
}

// Next returns the next record, skipping rows with empty text.
func (s *PostgresSource) Next() (Record, error) {
	for s.rows.Next() {
		var id sql.NullString
		var text sql.NullString
		if err := s.rows.Scan(&id, &text); err != nil {
			return Record{}, fmt.Errorf("failed to scan row: %w", err)
		}

		trimmed := strings.TrimSpace(text.String)
		if trimmed == "" {
			continue
		}

		recordID := strings.TrimSpace(id.String)
		if recordID == "" {
			recordID = uuid.NewString()
		}

		return Record{ID: recordID, Text: trimmed}, nil
	}

	if err := s.rows.Err(); err != nil {
		return Record{}, fmt.Errorf("row iteration failed: %w", err)
	}
	return Record{}, io.EOF
}

// Close releases the result set and the connection pool.
func (s *PostgresSource) Close() error {
	var errs []error
	if err := s.rows.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

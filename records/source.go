// Package records provides the record sources feeding the classification
// pipeline: an ordered stream of (id, text) pairs from a CSV export or a
// PostgreSQL table.
package records

// Record is one access-to-information request. Immutable input to the
// pipeline.
type Record struct {
	ID   string
	Text string
}

// Source is an ordered stream of records. Next returns io.EOF when the
// stream is exhausted; any other error means the stream is broken.
type Source interface {
	Next() (Record, error)
	Close() error
}
